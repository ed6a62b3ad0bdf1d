// Package features turns raw site measurements into the fixed-order,
// [0,1]-normalized vector every scorer consumes.
package features

import (
	"errors"
	"fmt"
	"math"
)

// Size is the number of components in a Vector.
const Size = 11

// Indices into a Vector.
const (
	Darkness = iota
	Naturalness
	Clouds
	Air
	Moon
	Comfort
	Rating
	Trust
	Travel
	Duration
	Start
)

// Names lists the components in vector order. Trained models record these
// names and are rejected when they differ.
var Names = [Size]string{
	"darkness",
	"naturalness",
	"clouds",
	"air",
	"moon",
	"comfort",
	"rating",
	"trust",
	"travel",
	"duration",
	"start",
}

// ErrNotFinite is returned by Valid when a component is NaN or infinite.
var ErrNotFinite = errors.New("feature vector has a non-finite component")

// Vector is a normalized feature vector. Every finite component lies in [0,1].
type Vector [Size]float64

// Valid reports ErrNotFinite, naming the first bad component.
func (v Vector) Valid() error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s", ErrNotFinite, Names[i])
		}
	}
	return nil
}

// Slice returns the components as a new slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Map returns the components keyed by name, for logs and JSON output.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Size)
	for i, x := range v {
		m[Names[i]] = x
	}
	return m
}
