package features

import (
	"math"
	"time"
)

// SeasonalMeanF returns an approximate monthly mean surface temperature (°F)
// for a latitude, evaluated at the middle of t's month. It is a smooth
// zonal climatology: warmest at the equator, with a seasonal swing that grows
// with latitude and peaks in mid-July (north) or mid-January (south).
func SeasonalMeanF(lat float64, t time.Time) float64 {
	abs := math.Min(math.Abs(lat), 90)
	annual := 80 - 0.6*abs
	amplitude := math.Min(0.5*abs, 30)

	y, m, _ := t.Date()
	mid := time.Date(y, m, 15, 0, 0, 0, 0, time.UTC).YearDay()
	phase := 2 * math.Pi * float64(mid-196) / 365
	if lat < 0 {
		phase += math.Pi
	}
	return annual + amplitude*math.Cos(phase)
}
