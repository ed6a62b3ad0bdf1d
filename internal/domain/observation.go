package domain

import "time"

// Twilight selects the sun depression angle that bounds a night window.
type Twilight int

const (
	// Astronomical twilight: the sun is 18° below the horizon.
	Astronomical Twilight = iota
	// Nautical twilight: the sun is 12° below the horizon. Used by the
	// weekly outlook as a looser "dark enough" bound.
	Nautical
)

// Depression returns the sun altitude, in degrees, that bounds the twilight.
func (t Twilight) Depression() float64 {
	if t == Nautical {
		return -12
	}
	return -18
}

func (t Twilight) String() string {
	if t == Nautical {
		return "nautical"
	}
	return "astronomical"
}

// MaxWindow caps the length of an observation window.
const MaxWindow = 14 * time.Hour

// ObservationWindow is the usable dark period of one night at one location.
type ObservationWindow struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Twilight Twilight  `json:"-"`
}

// Duration returns the window length.
func (w ObservationWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t lies in [Start, End].
func (w ObservationWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowOptions controls how a night window is derived.
type WindowOptions struct {
	Twilight Twilight
	// Curfew is the latest acceptable return time ("HH:MM"); empty means
	// the window runs until dawn.
	Curfew string
	// Now advances the window start when the night is already under way.
	// The zero value disables the adjustment.
	Now time.Time
}

// MoonState describes the moon at an instant for an observer.
type MoonState struct {
	Illumination float64   `json:"illumination"` // lit fraction, 0-1
	Altitude     float64   `json:"altitude"`     // radians above the horizon
	Rise         time.Time `json:"rise,omitempty"`
	Set          time.Time `json:"set,omitempty"`
	AlwaysUp     bool      `json:"always_up,omitempty"`
	AlwaysDown   bool      `json:"always_down,omitempty"`
}

// Up reports whether the moon is above the horizon.
func (m MoonState) Up() bool {
	return m.Altitude > 0
}
