package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// TempUnit is the unit temperatures are expressed in.
type TempUnit string

const (
	Fahrenheit TempUnit = "fahrenheit"
	Celsius    TempUnit = "celsius"
)

// Preferences are the caller's constraints for a search. They are read-only
// to the engine.
type Preferences struct {
	MaxDriveMinutes      float64  `json:"max_drive_minutes" validate:"gt=0"`
	MinTemp              float64  `json:"min_temp" validate:"ltefield=MaxTemp"`
	MaxTemp              float64  `json:"max_temp"`
	MaxBortle            float64  `json:"max_bortle" validate:"gte=1,lte=9"`
	Curfew               string   `json:"curfew,omitempty" validate:"omitempty,datetime=15:04"` // latest acceptable return, "HH:MM"
	TempUnit             TempUnit `json:"temp_unit" validate:"oneof=fahrenheit celsius"`
	DepartureLeadMinutes int      `json:"departure_lead_minutes" validate:"gte=0"`
}

// DefaultPreferences mirrors the defaults shipped with the web client.
func DefaultPreferences() Preferences {
	return Preferences{
		MaxDriveMinutes:      60,
		MinTemp:              40,
		MaxTemp:              95,
		MaxBortle:            4,
		Curfew:               "02:00",
		TempUnit:             Fahrenheit,
		DepartureLeadMinutes: 30,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the preferences for internal consistency.
func (p Preferences) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

// TempBoundsF returns the temperature bounds converted to Fahrenheit.
func (p Preferences) TempBoundsF() (minF, maxF float64) {
	return ToFahrenheit(p.MinTemp, p.TempUnit), ToFahrenheit(p.MaxTemp, p.TempUnit)
}

// ToFahrenheit converts a temperature in unit u to Fahrenheit.
func ToFahrenheit(t float64, u TempUnit) float64 {
	if u == Celsius {
		return t*9/5 + 32
	}
	return t
}

// ToCelsius converts a temperature in unit u to Celsius.
func ToCelsius(t float64, u TempUnit) float64 {
	if u == Celsius {
		return t
	}
	return (t - 32) * 5 / 9
}
