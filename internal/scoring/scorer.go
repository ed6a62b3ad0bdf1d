// Package scoring ranks normalized feature vectors. Two strategies share the
// Scorer interface: a fixed-weight heuristic and a small learned network
// trained offline on synthetic scenarios.
package scoring

import (
	"math"

	"github.com/couchcryptid/stellaview/internal/features"
)

// Scorer maps a valid feature vector to a score in [0,100].
type Scorer interface {
	Name() string
	Score(v features.Vector) float64
}

// heuristicWeights sum to 95; the darkness bonus supplies the last 5 points.
var heuristicWeights = features.Vector{
	features.Darkness:    20,
	features.Naturalness: 12,
	features.Clouds:      15,
	features.Air:         5,
	features.Moon:        10,
	features.Comfort:     10,
	features.Rating:      4,
	features.Trust:       3,
	features.Travel:      8,
	features.Duration:    5,
	features.Start:       3,
}

const darknessBonus = 5.0

// Heuristic is the deterministic weighted scorer.
type Heuristic struct{}

// NewHeuristic returns the heuristic scorer.
func NewHeuristic() Heuristic { return Heuristic{} }

func (Heuristic) Name() string { return "heuristic" }

// Score is a weighted sum of the components plus a log-shaped bonus that
// separates truly dark sites from merely dim ones.
func (Heuristic) Score(v features.Vector) float64 {
	var s float64
	for i, w := range heuristicWeights {
		s += w * v[i]
	}
	s += darknessBonus * math.Log10(1+9*math.Max(0, v[features.Darkness]))
	return clampScore(s)
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(100, s))
}
