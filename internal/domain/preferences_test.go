package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_ValidateDefaults(t *testing.T) {
	require.NoError(t, DefaultPreferences().Validate())
}

func TestPreferences_ValidateRejects(t *testing.T) {
	cases := map[string]func(p *Preferences){
		"zero drive time":   func(p *Preferences) { p.MaxDriveMinutes = 0 },
		"inverted temps":    func(p *Preferences) { p.MinTemp, p.MaxTemp = 90, 10 },
		"bortle too high":   func(p *Preferences) { p.MaxBortle = 10 },
		"bortle too low":    func(p *Preferences) { p.MaxBortle = 0.5 },
		"bad curfew":        func(p *Preferences) { p.Curfew = "2am" },
		"unknown unit":      func(p *Preferences) { p.TempUnit = "kelvin" },
		"negative lead":     func(p *Preferences) { p.DepartureLeadMinutes = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultPreferences()
			mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPreferences_EmptyCurfewAllowed(t *testing.T) {
	p := DefaultPreferences()
	p.Curfew = ""
	assert.NoError(t, p.Validate())
}

func TestTemperatureConversions(t *testing.T) {
	assert.InDelta(t, 68.0, ToFahrenheit(20, Celsius), 1e-9)
	assert.InDelta(t, 50.0, ToFahrenheit(50, Fahrenheit), 1e-9)
	assert.InDelta(t, 20.0, ToCelsius(68, Fahrenheit), 1e-9)

	p := Preferences{MinTemp: 0, MaxTemp: 30, TempUnit: Celsius}
	minF, maxF := p.TempBoundsF()
	assert.InDelta(t, 32.0, minF, 1e-9)
	assert.InDelta(t, 86.0, maxF, 1e-9)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("02:30")
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "25:00", "12:60", "noon", "1:2:3"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestLeaveBy(t *testing.T) {
	start := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 21, 45, 0, 0, time.UTC), LeaveBy(start, 45, 30))
}
