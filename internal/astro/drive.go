package astro

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	earthRadiusMiles = 3958.8
	averageSpeedMPH  = 45.0

	// UnreachableMinutes is reported for invalid coordinates so that the
	// travel filter rejects them.
	UnreachableMinutes = 24 * 60.0
)

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(a, b domain.LatLon) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lon)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return pa.Distance(pb).Radians() * earthRadiusMiles
}

// DriveTimeEstimate approximates driving minutes as the great-circle
// distance at a constant average speed.
func DriveTimeEstimate(from, to domain.LatLon) float64 {
	if !from.Valid() || !to.Valid() {
		return UnreachableMinutes
	}
	return math.Round(DistanceMiles(from, to) / averageSpeedMPH * 60)
}
