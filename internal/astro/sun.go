package astro

import (
	"math"
	"time"
)

// crossing describes when the sun passes a given altitude on one solar day.
type crossing struct {
	morning time.Time
	evening time.Time
	// alwaysBelow is set when the sun never climbs to the altitude (polar
	// night); alwaysAbove when it never sinks to it (midnight sun).
	alwaysBelow bool
	alwaysAbove bool
}

func julianCycle(d, lw float64) float64 {
	return math.Round(d - j0 - lw/(2*math.Pi))
}

func approxTransit(ht, lw, n float64) float64 {
	return j0 + (ht+lw)/(2*math.Pi) + n
}

func solarTransitJ(ds, m, l float64) float64 {
	return j2000 + ds + 0.0053*math.Sin(m) - 0.0069*math.Sin(2*l)
}

// sunCrossing computes the morning and evening instants at which the sun's
// center reaches altitudeDeg on the solar day containing noon.
func sunCrossing(noon time.Time, lat, lon, altitudeDeg float64) crossing {
	lw := rad * -lon
	phi := rad * lat

	d := toDays(noon)
	n := julianCycle(d, lw)
	ds := approxTransit(0, lw, n)

	m := solarMeanAnomaly(ds)
	l := eclipticLongitude(m)
	dec := declination(l, 0)
	jNoon := solarTransitJ(ds, m, l)

	h0 := altitudeDeg * rad
	x := (math.Sin(h0) - math.Sin(phi)*math.Sin(dec)) / (math.Cos(phi) * math.Cos(dec))
	switch {
	case math.IsNaN(x) || x > 1:
		return crossing{alwaysBelow: true, evening: fromJulian(jNoon)}
	case x < -1:
		return crossing{alwaysAbove: true, evening: fromJulian(jNoon)}
	}

	w := math.Acos(x)
	jSet := solarTransitJ(approxTransit(w, lw, n), m, l)
	jRise := jNoon - (jSet - jNoon)

	return crossing{morning: fromJulian(jRise), evening: fromJulian(jSet)}
}

// localNoon returns noon on t's calendar day in t's location.
func localNoon(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 12, 0, 0, 0, t.Location())
}
