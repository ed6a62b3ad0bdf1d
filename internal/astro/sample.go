package astro

import (
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
)

// MoonSampleStep is the interval at which window-wide moon checks sample
// the moon's altitude.
const MoonSampleStep = 15 * time.Minute

// MoonUpThroughout reports whether the moon is above the horizon at every
// sample across the window, both ends included.
func MoonUpThroughout(sky domain.Sky, w domain.ObservationWindow, lat, lon float64) bool {
	up := true
	eachSample(w, func(t time.Time) bool {
		if !sky.Moon(t, lat, lon).Up() {
			up = false
			return false
		}
		return true
	})
	return up
}

// MoonUpDuring reports whether the moon is above the horizon at any sample
// in the window.
func MoonUpDuring(sky domain.Sky, w domain.ObservationWindow, lat, lon float64) bool {
	up := false
	eachSample(w, func(t time.Time) bool {
		if sky.Moon(t, lat, lon).Up() {
			up = true
			return false
		}
		return true
	})
	return up
}

func eachSample(w domain.ObservationWindow, fn func(time.Time) bool) {
	if w.End.Before(w.Start) {
		return
	}
	for t := w.Start; t.Before(w.End); t = t.Add(MoonSampleStep) {
		if !fn(t) {
			return
		}
	}
	fn(w.End)
}
