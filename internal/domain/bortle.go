package domain

import "math"

const (
	// bortleBaseRadiance is the radiance of a Bortle 1 sky.
	bortleBaseRadiance = 0.01
	minBortle          = 1.0
	maxBortle          = 9.0
)

// RadianceToBortle converts artificial radiance (nW/cm²/sr) to a continuous
// Bortle-equivalent value in [1, 9]. Non-finite or non-positive radiance maps
// to 1.
func RadianceToBortle(radiance float64) float64 {
	if math.IsNaN(radiance) || radiance <= bortleBaseRadiance {
		return minBortle
	}
	if math.IsInf(radiance, 1) {
		return maxBortle
	}
	b := 1 + 2*math.Log10(radiance/bortleBaseRadiance)
	return math.Max(minBortle, math.Min(maxBortle, b))
}

// BortleToRadiance is the inverse of RadianceToBortle over [1, 9].
func BortleToRadiance(bortle float64) float64 {
	if math.IsNaN(bortle) {
		return bortleBaseRadiance
	}
	b := math.Max(minBortle, math.Min(maxBortle, bortle))
	return bortleBaseRadiance * math.Pow(10, (b-1)/2)
}
