package a5

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the authalic Earth radius: the radius of the sphere
// whose surface area equals the reference ellipsoid's.
const EarthRadiusMeters = 6371007.1809

// Per-resolution constants, built once and never mutated.
var (
	numCells  [MaxResolution + 1]uint64
	cellAreas [MaxResolution + 1]float64
)

func init() {
	sphere := 4 * math.Pi * EarthRadiusMeters * EarthRadiusMeters
	for r := 0; r <= MaxResolution; r++ {
		numCells[r] = NumBaseCells << (2 * uint(r))
		cellAreas[r] = sphere / float64(numCells[r])
	}
}

// NumCells returns the total number of cells at a resolution, 12 * 4^res.
// The resolution-30 count exceeds the signed 64-bit range.
func NumCells(res int) (uint64, error) {
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	return numCells[res], nil
}

// CellArea returns the area of one cell at a resolution, in square meters
// on the authalic sphere. All cells of a resolution have equal area.
func CellArea(res int) (float64, error) {
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	return cellAreas[res], nil
}

// Res0Cells returns the twelve resolution-0 cells in ascending order. The
// slice is freshly allocated per call.
func Res0Cells() []CellID {
	cells := make([]CellID, NumBaseCells)
	for i := range cells {
		cells[i] = CellID(i + 1)
	}
	return cells
}
