package checks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/stellaview/internal/domain"
)

var night = time.Date(2024, 6, 22, 5, 0, 0, 0, time.UTC)

func hourly(start time.Time, clouds, temps []float64) domain.HourlyForecast {
	f := domain.HourlyForecast{Unit: domain.Fahrenheit, CloudCover: clouds, Temperature: temps}
	for i := range clouds {
		f.Times = append(f.Times, start.Add(time.Duration(i)*time.Hour))
	}
	return f
}

func window(hours int) domain.ObservationWindow {
	return domain.ObservationWindow{Start: night, End: night.Add(time.Duration(hours) * time.Hour)}
}

func TestWeatherWindow_PicksClearestEarliestHour(t *testing.T) {
	f := hourly(night, []float64{30, 5, 5, 10, 40}, []float64{60, 58, 56, 55, 54})

	v := WeatherWindow(f, window(4), domain.DefaultPreferences())

	require.True(t, v.OK)
	assert.Equal(t, night.Add(time.Hour), v.BestTime)
	assert.Equal(t, 5.0, v.CloudCover)
	assert.Equal(t, 58.0, v.Temperature)
	assert.Equal(t, 3.0, v.ClearSkyHours)
	assert.InDelta(t, 18, v.AvgCloudCover, 1e-9)
	assert.InDelta(t, 56.6, v.AvgTemp, 1e-9)
}

func TestWeatherWindow_Failures(t *testing.T) {
	prefs := domain.DefaultPreferences()
	tests := []struct {
		name   string
		clouds []float64
		temps  []float64
		want   domain.FailureReason
	}{
		{"clouds", []float64{21, 50, 80}, []float64{60, 60, 60}, domain.ReasonClouds},
		{"cold", []float64{0, 0, 0}, []float64{39, 30, 20}, domain.ReasonCold},
		{"hot", []float64{0, 0, 0}, []float64{96, 98, 99}, domain.ReasonHot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := WeatherWindow(hourly(night, tt.clouds, tt.temps), window(3), prefs)
			assert.False(t, v.OK)
			assert.Equal(t, tt.want, v.Reason)
		})
	}
}

func TestWeatherWindow_CloudsAtBoundaryPass(t *testing.T) {
	v := WeatherWindow(hourly(night, []float64{20}, []float64{60}), window(2), domain.DefaultPreferences())
	assert.True(t, v.OK)
}

func TestWeatherWindow_OutOfRange(t *testing.T) {
	f := hourly(night.Add(-48*time.Hour), []float64{0, 0, 0}, []float64{60, 60, 60})

	v := WeatherWindow(f, window(4), domain.DefaultPreferences())

	assert.False(t, v.OK)
	assert.Equal(t, domain.ReasonOutOfRange, v.Reason)
}

func TestWeatherWindow_ConvertsUnits(t *testing.T) {
	prefs := domain.DefaultPreferences()
	prefs.TempUnit = domain.Celsius
	prefs.MinTemp = 5
	prefs.MaxTemp = 30

	// 41°F is 5°C; 32°F is below the minimum.
	v := WeatherWindow(hourly(night, []float64{0}, []float64{32}), window(2), prefs)
	assert.Equal(t, domain.ReasonCold, v.Reason)

	v = WeatherWindow(hourly(night, []float64{0}, []float64{50}), window(2), prefs)
	require.True(t, v.OK)
	assert.InDelta(t, 10, v.Temperature, 1e-9)
}

func TestWeatherWindow_SkipsMissingSamples(t *testing.T) {
	f := hourly(night, []float64{math.NaN(), 10}, []float64{60, 60})

	v := WeatherWindow(f, window(2), domain.DefaultPreferences())

	require.True(t, v.OK)
	assert.Equal(t, night.Add(time.Hour), v.BestTime)
}

type stubWeather struct {
	forecast domain.HourlyForecast
	err      error
	calls    int
}

func (s *stubWeather) HourlyForecast(context.Context, float64, float64, int, domain.TempUnit) (domain.HourlyForecast, error) {
	s.calls++
	return s.forecast, s.err
}

func TestWeatherChecker_FetchErrorIsNoData(t *testing.T) {
	checker := NewWeatherChecker(&stubWeather{err: errors.New("boom")}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	v := checker.Check(context.Background(), domain.Site{Name: "Craters"}, window(4), domain.DefaultPreferences(), nil)

	assert.Equal(t, domain.ReasonNoData, v.Reason)
}

func TestWeatherChecker_UsesCachedForecast(t *testing.T) {
	provider := &stubWeather{err: errors.New("should not be called")}
	checker := NewWeatherChecker(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cached := hourly(night, []float64{0, 0}, []float64{60, 60})

	v := checker.Check(context.Background(), domain.Site{}, window(2), domain.DefaultPreferences(), &cached)

	assert.True(t, v.OK)
	assert.Zero(t, provider.calls)
}

func TestForecastDays(t *testing.T) {
	assert.Equal(t, 2, ForecastDays(night, night.Add(3*time.Hour)))
	assert.Equal(t, 4, ForecastDays(night, night.Add(60*time.Hour)))
	assert.Equal(t, 16, ForecastDays(night, night.Add(60*24*time.Hour)))
}

func TestAirQuality(t *testing.T) {
	s := domain.AirSeries{
		Times: []time.Time{night, night.Add(time.Hour), night.Add(2 * time.Hour), night.Add(3 * time.Hour)},
		PM25:  []float64{50, math.NaN(), 12, 40},
	}

	v := AirQuality(s, time.Time{})
	assert.Equal(t, domain.ReasonAQI, v.Reason)
	assert.Equal(t, 50.0, v.PM25)

	v = AirQuality(s, night.Add(30*time.Minute))
	assert.True(t, v.OK)
	assert.Equal(t, 12.0, v.PM25)
	assert.False(t, v.Fallback)
}

func TestAirQuality_FallbackWhenEmpty(t *testing.T) {
	v := AirQuality(domain.AirSeries{}, night)
	assert.True(t, v.OK)
	assert.True(t, v.Fallback)
	assert.Equal(t, FallbackPM25, v.PM25)

	v = AirQuality(domain.AirSeries{Times: []time.Time{night}, PM25: []float64{math.NaN()}}, time.Time{})
	assert.True(t, v.Fallback)
}

type stubAir struct {
	series domain.AirSeries
	err    error
	days   int
}

func (s *stubAir) HourlyPM25(_ context.Context, _, _ float64, days int) (domain.AirSeries, error) {
	s.days = days
	return s.series, s.err
}

func TestAirChecker_UpstreamErrorFallsBack(t *testing.T) {
	checker := NewAirChecker(&stubAir{err: errors.New("503")}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	v := checker.Check(context.Background(), domain.Site{Name: "Bruneau"}, night)

	assert.True(t, v.OK)
	assert.True(t, v.Fallback)
	assert.Equal(t, FallbackPM25, v.PM25)
}

func TestAirChecker_RequestsDaysUpToFrom(t *testing.T) {
	clock := clockwork.NewFakeClockAt(night.Add(-50 * time.Hour))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	provider := &stubAir{series: domain.AirSeries{Times: []time.Time{night}, PM25: []float64{8}}}
	checker := NewAirChecker(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))

	v := checker.Check(context.Background(), domain.Site{}, night)

	assert.True(t, v.OK)
	assert.Equal(t, 4, provider.days)
	assert.Equal(t, 7, AirDays(night, night.Add(30*24*time.Hour)))
	assert.Equal(t, 1, AirDays(night, night.Add(-time.Hour)))
}
