package astro

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
)

var (
	// ErrNoDarkness is returned when the sun never sinks to the twilight
	// depression (midnight sun at high latitudes).
	ErrNoDarkness = errors.New("sun does not reach twilight depression")
	// ErrEmptyWindow is returned when curfew or the current time leaves no
	// usable dark period.
	ErrEmptyWindow = errors.New("observation window is empty")
)

// Sky implements domain.Sky with the low-precision ephemeris.
type Sky struct{}

// NewSky returns a Sky.
func NewSky() Sky { return Sky{} }

// Moon implements domain.Sky.
func (Sky) Moon(at time.Time, lat, lon float64) domain.MoonState {
	return MoonAt(at, lat, lon)
}

// NightWindow implements domain.Sky. Dusk is taken on date's calendar day and
// dawn on the following day, both in date's location.
func (Sky) NightWindow(date time.Time, lat, lon float64, opts domain.WindowOptions) (domain.ObservationWindow, error) {
	return NightWindow(date, lat, lon, opts)
}

// NightWindow derives the dark period beginning on the evening of date.
//
// The window runs from the evening twilight crossing to the next morning's
// crossing. A curfew replaces the end (a curfew before noon refers to the
// following morning). The start is advanced to opts.Now when the night is
// under way, and the window is capped at domain.MaxWindow.
func NightWindow(date time.Time, lat, lon float64, opts domain.WindowOptions) (domain.ObservationWindow, error) {
	depression := opts.Twilight.Depression()
	noon := localNoon(date)

	evening := sunCrossing(noon, lat, lon, depression)
	morning := sunCrossing(noon.AddDate(0, 0, 1), lat, lon, depression)

	if evening.alwaysAbove || morning.alwaysAbove {
		return domain.ObservationWindow{}, ErrNoDarkness
	}

	w := domain.ObservationWindow{Twilight: opts.Twilight}
	switch {
	case evening.alwaysBelow:
		// Polar night: dark around the clock. Start at evening local time.
		w.Start = noon.Add(6 * time.Hour)
	default:
		w.Start = evening.evening
	}
	switch {
	case morning.alwaysBelow:
		w.End = w.Start.Add(domain.MaxWindow)
	default:
		w.End = morning.morning
	}

	if opts.Curfew != "" {
		hour, minute, err := domain.ParseClock(opts.Curfew)
		if err != nil {
			return domain.ObservationWindow{}, fmt.Errorf("curfew: %w", err)
		}
		y, mo, d := noon.Date()
		curfew := time.Date(y, mo, d, hour, minute, 0, 0, noon.Location())
		if hour < 12 {
			curfew = curfew.AddDate(0, 0, 1)
		}
		w.End = curfew
	}

	if !opts.Now.IsZero() && opts.Now.After(w.Start) {
		w.Start = opts.Now
	}

	if w.Duration() > domain.MaxWindow {
		w.End = w.Start.Add(domain.MaxWindow)
	}
	if !w.End.After(w.Start) {
		return domain.ObservationWindow{}, ErrEmptyWindow
	}
	return w, nil
}
