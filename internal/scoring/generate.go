package scoring

import (
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/stellaview/internal/features"
)

// Sample is one labeled training example.
type Sample struct {
	Input features.Vector
	Label float64
}

// pathologicalShare is the fraction of generated scenarios drawn from
// corner cases the uniform draw rarely produces.
const pathologicalShare = 0.1

const (
	genMinTempF  = 20.0
	genMaxTempF  = 95.0
	genMaxTravel = 120.0
	labelDivisor = 60.0
	coldPenalty  = 0.5
)

// scenario holds the raw draws before normalization.
type scenario struct {
	radiance, ndvi, clouds, pm25, tempF, seasonalF, illumination float64
	rating, trust, travel, duration, startOffset                 float64
}

// GenerateScenarios draws n labeled samples. The label follows the same
// structure as the heuristic (darkness, naturalness, clouds, moon, travel,
// air) scaled into [0,1], halved when the temperature is outside the
// comfortable range.
func GenerateScenarios(rng *rand.Rand, n int) []Sample {
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		var s scenario
		if rng.Float64() < pathologicalShare {
			s = pathological(rng)
		} else {
			s = uniform(rng)
		}
		v := s.vector()
		out = append(out, Sample{Input: v, Label: label(v)})
	}
	return out
}

func uniform(rng *rand.Rand) scenario {
	radiance := rng.Float64() * 60
	if rng.Float64() < 0.5 {
		radiance = rng.Float64() * 2
	}
	return scenario{
		radiance:     radiance,
		ndvi:         -0.2 + rng.Float64()*1.2,
		clouds:       rng.Float64() * 100,
		pm25:         rng.Float64() * 80,
		tempF:        -10 + rng.Float64()*120,
		seasonalF:    30 + rng.Float64()*50,
		illumination: rng.Float64(),
		rating:       rng.Float64() * 5,
		trust:        0.5 + 0.5*float64(rng.IntN(2)),
		travel:       rng.Float64() * genMaxTravel,
		duration:     rng.Float64() * 6,
		startOffset:  rng.Float64() * 12,
	}
}

// pathological produces dark-but-frozen, bright-moon-clear-sky and
// far-but-pristine scenarios.
func pathological(rng *rand.Rand) scenario {
	s := uniform(rng)
	switch rng.IntN(3) {
	case 0:
		s.radiance = rng.Float64() * 0.3
		s.clouds = rng.Float64() * 10
		s.tempF = -10 + rng.Float64()*20
	case 1:
		s.illumination = 0.9 + rng.Float64()*0.1
		s.clouds = rng.Float64() * 5
	default:
		s.radiance = rng.Float64() * 0.3
		s.ndvi = 0.3 + rng.Float64()*0.4
		s.clouds = rng.Float64() * 10
		s.travel = genMaxTravel
	}
	return s
}

func (s scenario) vector() features.Vector {
	rating := s.rating
	return features.Normalize(features.Input{
		Radiance:         s.radiance,
		NDVI:             s.ndvi,
		CloudCover:       s.clouds,
		PM25:             s.pm25,
		MoonIllumination: s.illumination,
		TemperatureF:     s.tempF,
		MinTempF:         genMinTempF,
		MaxTempF:         genMaxTempF,
		SeasonalMeanF:    s.seasonalF,
		Rating:           &rating,
		Trust:            s.trust,
		TravelMinutes:    s.travel,
		MaxTravelMinutes: genMaxTravel,
		ClearSkyHours:    s.duration,
		StartOffsetHours: s.startOffset,
	})
}

func label(v features.Vector) float64 {
	score := v[features.Darkness]*20 +
		v[features.Naturalness]*15 +
		v[features.Clouds]*15 +
		v[features.Moon]*10 +
		v[features.Travel]*10 +
		v[features.Air]*5
	y := score / labelDivisor
	if v[features.Comfort] == 0 {
		y *= coldPenalty
	}
	return math.Max(0, math.Min(1, y))
}
