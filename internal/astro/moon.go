package astro

import (
	"math"
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
)

// moonHorizon is the altitude offset for the moon's upper limb.
const moonHorizon = 0.133 * rad

// MoonAt returns illumination and altitude at the instant, with rise and
// set times for the instant's calendar day.
func MoonAt(at time.Time, lat, lon float64) domain.MoonState {
	state := domain.MoonState{
		Illumination: MoonIllumination(at),
		Altitude:     MoonAltitude(at, lat, lon),
	}

	y, mo, d := at.Date()
	start := time.Date(y, mo, d, 0, 0, 0, 0, at.Location())
	rise, set, ye := moonTimes(start, lat, lon)
	state.Rise = rise
	state.Set = set
	if rise.IsZero() && set.IsZero() {
		if ye > 0 {
			state.AlwaysUp = true
		} else {
			state.AlwaysDown = true
		}
	}
	return state
}

// moonTimes scans the 24 hours from start in two-hour steps, fitting a
// parabola through three altitude samples per step to find horizon crossings.
// ye is the altitude at the last fitted extremum, used to tell "always up"
// from "always down" when no crossing is found.
func moonTimes(start time.Time, lat, lon float64) (rise, set time.Time, ye float64) {
	at := func(hours float64) float64 {
		return MoonAltitude(start.Add(time.Duration(hours*float64(time.Hour))), lat, lon) - moonHorizon
	}

	var riseH, setH float64
	var haveRise, haveSet bool

	h0 := at(0)
	for i := 1.0; i <= 24; i += 2 {
		h1 := at(i)
		h2 := at(i + 1)

		a := (h0+h2)/2 - h1
		b := (h2 - h0) / 2
		xe := -b / (2 * a)
		ye = (a*xe+b)*xe + h1
		disc := b*b - 4*a*h1

		roots := 0
		var x1, x2 float64
		if disc >= 0 {
			dx := math.Sqrt(disc) / (math.Abs(a) * 2)
			x1 = xe - dx
			x2 = xe + dx
			if math.Abs(x1) <= 1 {
				roots++
			}
			if math.Abs(x2) <= 1 {
				roots++
			}
			if x1 < -1 {
				x1 = x2
			}
		}

		switch roots {
		case 1:
			if h0 < 0 {
				riseH, haveRise = i+x1, true
			} else {
				setH, haveSet = i+x1, true
			}
		case 2:
			if ye < 0 {
				riseH, setH = i+x2, i+x1
			} else {
				riseH, setH = i+x1, i+x2
			}
			haveRise, haveSet = true, true
		}

		if haveRise && haveSet {
			break
		}
		h0 = h2
	}

	if haveRise {
		rise = start.Add(time.Duration(riseH * float64(time.Hour)))
	}
	if haveSet {
		set = start.Add(time.Duration(setH * float64(time.Hour)))
	}
	return rise, set, ye
}
