package tiles

import (
	"fmt"
	"math"

	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	radianceCellDeg   = 5.0
	vegetationCellDeg = 10.0
)

// RadianceTileID returns the id of the 5° radiance tile holding the point,
// formatted as "{latFloor}_{lonFloor}".
func RadianceTileID(lat, lon float64) string {
	return fmt.Sprintf("%d_%d", floorTo(lat, radianceCellDeg), floorTo(lon, radianceCellDeg))
}

// VegetationTileID returns the id of the 10° vegetation tile holding the
// point, formatted as "hHHvVV".
func VegetationTileID(lat, lon float64) string {
	h, v := vegetationCell(lat, lon)
	return fmt.Sprintf("h%02dv%02d", h, v)
}

// TileID dispatches to the layer's id scheme.
func TileID(layer domain.Layer, lat, lon float64) string {
	if layer == domain.LayerVegetation {
		return VegetationTileID(lat, lon)
	}
	return RadianceTileID(lat, lon)
}

// bucketBounds returns the geographic extent of the bucket holding the point.
func bucketBounds(layer domain.Layer, lat, lon float64) domain.Bounds {
	if layer == domain.LayerVegetation {
		h, v := vegetationCell(lat, lon)
		west := float64(h)*vegetationCellDeg - 180
		north := 90 - float64(v)*vegetationCellDeg
		return domain.Bounds{North: north, South: north - vegetationCellDeg, West: west, East: west + vegetationCellDeg}
	}
	south := float64(floorTo(lat, radianceCellDeg))
	west := float64(floorTo(lon, radianceCellDeg))
	return domain.Bounds{North: south + radianceCellDeg, South: south, West: west, East: west + radianceCellDeg}
}

func vegetationCell(lat, lon float64) (h, v int) {
	h = int(math.Floor((lon + 180) / vegetationCellDeg))
	v = int(math.Floor((90 - lat) / vegetationCellDeg))
	return clampInt(h, 0, 35), clampInt(v, 0, 17)
}

func floorTo(x, step float64) int {
	return int(math.Floor(x/step) * step)
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
