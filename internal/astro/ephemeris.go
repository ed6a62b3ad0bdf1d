package astro

import (
	"math"
	"time"
)

const (
	rad       = math.Pi / 180
	dayMillis = 1000 * 60 * 60 * 24
	j1970     = 2440588.0
	j2000     = 2451545.0

	// obliquity of the Earth.
	obliquity = rad * 23.4397

	j0 = 0.0009

	sunDistanceKm = 149598000.0
)

func toJulian(t time.Time) float64 {
	return float64(t.UnixMilli())/dayMillis - 0.5 + j1970
}

func fromJulian(j float64) time.Time {
	ms := (j + 0.5 - j1970) * dayMillis
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

func toDays(t time.Time) float64 {
	return toJulian(t) - j2000
}

func rightAscension(l, b float64) float64 {
	return math.Atan2(math.Sin(l)*math.Cos(obliquity)-math.Tan(b)*math.Sin(obliquity), math.Cos(l))
}

func declination(l, b float64) float64 {
	return math.Asin(math.Sin(b)*math.Cos(obliquity) + math.Cos(b)*math.Sin(obliquity)*math.Sin(l))
}

func altitude(h, phi, dec float64) float64 {
	return math.Asin(math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(h))
}

func siderealTime(d, lw float64) float64 {
	return rad*(280.16+360.9856235*d) - lw
}

// refraction approximates atmospheric refraction for an altitude in radians.
func refraction(h float64) float64 {
	if h < 0 {
		h = 0
	}
	return 0.0002967 / math.Tan(h+0.00312536/(h+0.08901179))
}

func solarMeanAnomaly(d float64) float64 {
	return rad * (357.5291 + 0.98560028*d)
}

func eclipticLongitude(m float64) float64 {
	c := rad * (1.9148*math.Sin(m) + 0.02*math.Sin(2*m) + 0.0003*math.Sin(3*m))
	perihelion := rad * 102.9372
	return m + c + perihelion + math.Pi
}

type equatorial struct {
	ra, dec float64
	distKm  float64
}

func sunCoords(d float64) equatorial {
	l := eclipticLongitude(solarMeanAnomaly(d))
	return equatorial{ra: rightAscension(l, 0), dec: declination(l, 0), distKm: sunDistanceKm}
}

func moonCoords(d float64) equatorial {
	l := rad * (218.316 + 13.176396*d) // ecliptic longitude
	m := rad * (134.963 + 13.064993*d) // mean anomaly
	f := rad * (93.272 + 13.229350*d)  // mean distance

	lon := l + rad*6.289*math.Sin(m)
	lat := rad * 5.128 * math.Sin(f)
	dist := 385001 - 20905*math.Cos(m)

	return equatorial{ra: rightAscension(lon, lat), dec: declination(lon, lat), distKm: dist}
}

// SunAltitude returns the sun's altitude in radians at t for an observer.
func SunAltitude(t time.Time, lat, lon float64) float64 {
	lw := rad * -lon
	phi := rad * lat
	d := toDays(t)
	c := sunCoords(d)
	h := siderealTime(d, lw) - c.ra
	return altitude(h, phi, c.dec)
}

// MoonAltitude returns the moon's apparent altitude in radians, corrected for
// refraction.
func MoonAltitude(t time.Time, lat, lon float64) float64 {
	lw := rad * -lon
	phi := rad * lat
	d := toDays(t)
	c := moonCoords(d)
	h := siderealTime(d, lw) - c.ra
	alt := altitude(h, phi, c.dec)
	return alt + refraction(alt)
}

// MoonIllumination returns the lit fraction of the moon's disc at t. The
// result is a smooth function of time with no wrap discontinuity.
func MoonIllumination(t time.Time) float64 {
	d := toDays(t)
	s := sunCoords(d)
	m := moonCoords(d)

	elongation := math.Acos(clampUnit(
		math.Sin(s.dec)*math.Sin(m.dec) + math.Cos(s.dec)*math.Cos(m.dec)*math.Cos(s.ra-m.ra),
	))
	inc := math.Atan2(s.distKm*math.Sin(elongation), m.distKm-s.distKm*math.Cos(elongation))
	return (1 + math.Cos(inc)) / 2
}

func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
