package features

import (
	"math"
)

const (
	maxDurationHours = 6.0
	maxStartOffset   = 12.0
	idealComfortF    = 68.0
	minComfortSigma  = 4.0
	unknownRating    = 0.5
	unknownTrust     = 0.5
)

// Input carries the raw measurements for one site and night.
type Input struct {
	Radiance         float64 // nW/cm²/sr
	NDVI             float64
	CloudCover       float64 // percent
	PM25             float64 // µg/m³
	MoonIllumination float64 // 0-1
	TemperatureF     float64
	MinTempF         float64
	MaxTempF         float64
	SeasonalMeanF    float64
	Rating           *float64 // 0-5, nil when unknown
	Trust            float64  // 0-1, zero when unknown
	TravelMinutes    float64
	MaxTravelMinutes float64
	ClearSkyHours    float64
	StartOffsetHours float64 // best start minus window start
}

// Normalize maps an Input onto a Vector. NaN inputs stay NaN so that callers
// can detect and skip them.
func Normalize(in Input) Vector {
	var v Vector
	v[Darkness] = DarknessScore(in.Radiance)
	v[Naturalness] = NaturalnessScore(in.NDVI)
	v[Clouds] = (100 - in.CloudCover) / 100
	v[Air] = (100 - in.PM25) / 100
	v[Moon] = (1 - in.MoonIllumination) * (1 - in.MoonIllumination)
	v[Comfort] = ComfortScore(in.TemperatureF, in.MinTempF, in.MaxTempF, in.SeasonalMeanF)

	v[Rating] = unknownRating
	if in.Rating != nil {
		v[Rating] = *in.Rating / 5
	}
	v[Trust] = unknownTrust
	if in.Trust != 0 {
		v[Trust] = in.Trust
	}

	v[Travel] = 0
	if in.MaxTravelMinutes > 0 {
		v[Travel] = 1 - in.TravelMinutes/in.MaxTravelMinutes
	}
	v[Duration] = math.Min(in.ClearSkyHours, maxDurationHours) / maxDurationHours
	v[Start] = 1 - math.Min(math.Max(in.StartOffsetHours, 0), maxStartOffset)/maxStartOffset

	for i := range v {
		v[i] = clamp01(v[i])
	}
	return v
}

// DarknessScore is 1 for pristine skies and falls logarithmically with
// radiance, reaching 0 near 315 nW/cm²/sr.
func DarknessScore(radiance float64) float64 {
	return math.Max(0, 1-math.Log10(radiance+1)/2.5)
}

// NaturalnessScore rewards moderate vegetation. Dense canopy blocks the
// horizon and bare ground is often developed, so both score lower.
func NaturalnessScore(ndvi float64) float64 {
	switch {
	case math.IsNaN(ndvi):
		return math.NaN()
	case ndvi > 0.85:
		return 0.1
	case ndvi < 0.1:
		return 0.4
	default:
		return 1
	}
}

// ComfortScore is a Gaussian around a seasonally adjusted ideal, zero outside
// the caller's bounds. All temperatures are Fahrenheit.
func ComfortScore(tempF, minF, maxF, seasonalMeanF float64) float64 {
	if math.IsNaN(tempF) {
		return math.NaN()
	}
	if tempF < minF || tempF > maxF {
		return 0
	}
	ideal := (idealComfortF + seasonalMeanF) / 2
	sigma := math.Max(minComfortSigma, (maxF-minF)/4)
	d := tempF - ideal
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Max(0, math.Min(1, x))
}
