package tiles

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/stellaview/internal/domain"
)

// ErrMalformedTile is returned for tiles whose grid cannot be sampled.
var ErrMalformedTile = errors.New("malformed tile")

// validateTile checks that the grid is non-empty and rectangular.
func validateTile(t domain.Tile) error {
	if len(t.Data) == 0 {
		return fmt.Errorf("%w: %s has no rows", ErrMalformedTile, t.ID)
	}
	if t.Rows != 0 && t.Rows != len(t.Data) {
		return fmt.Errorf("%w: %s declares %d rows, has %d", ErrMalformedTile, t.ID, t.Rows, len(t.Data))
	}
	cols := len(t.Data[0])
	if cols == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrMalformedTile, t.ID)
	}
	if t.Cols != 0 && t.Cols != cols {
		return fmt.Errorf("%w: %s declares %d cols, has %d", ErrMalformedTile, t.ID, t.Cols, cols)
	}
	for i, row := range t.Data {
		if len(row) != cols {
			return fmt.Errorf("%w: %s row %d is ragged", ErrMalformedTile, t.ID, i)
		}
	}
	return nil
}

// cellIndex maps a point to the nearest grid cell, clamping to the grid.
func cellIndex(rows, cols int, b domain.Bounds, lat, lon float64) (row, col int) {
	rowPct := (b.North - lat) / (b.North - b.South)
	colPct := (lon - b.West) / (b.East - b.West)
	row = clampInt(int(math.Floor(rowPct*float64(rows))), 0, rows-1)
	col = clampInt(int(math.Floor(colPct*float64(cols))), 0, cols-1)
	return row, col
}

// idw averages the finite cells within radius of (row, col), weighting the
// center 1 and each neighbor by the inverse of its cell distance.
func idw(data [][]float64, row, col, radius int) (float64, bool) {
	var sum, weights float64
	for dr := -radius; dr <= radius; dr++ {
		r := row + dr
		if r < 0 || r >= len(data) {
			continue
		}
		for dc := -radius; dc <= radius; dc++ {
			c := col + dc
			if c < 0 || c >= len(data[r]) {
				continue
			}
			v := data[r][c]
			if !finite(v) {
				continue
			}
			w := 1.0
			if dr != 0 || dc != 0 {
				w = 1 / math.Hypot(float64(dr), float64(dc))
			}
			sum += v * w
			weights += w
		}
	}
	if weights == 0 {
		return 0, false
	}
	return sum / weights, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
