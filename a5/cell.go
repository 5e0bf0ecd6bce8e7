package a5

import (
	"fmt"
	"math/bits"
)

// CellID identifies one pentagonal cell of the global tiling. The zero
// value is the reserved invalid identifier.
//
// Identifiers are self-describing. Cells of resolution r occupy the
// contiguous range [offset(r), offset(r+1)) with offset(r) = 4^(r+1) - 3,
// and within the range
//
//	id = offset(r) + base*4^r + path
//
// where path packs one radix-4 child digit per level, most significant
// digit first. The ranges of the 31 resolutions tile the 64-bit space
// exactly: resolution recovery is a leading-bit probe, the descendants of
// any cell at any finer resolution form one contiguous run, sibling
// quartets are four consecutive identifiers, and only the values 0 and
// 2^64-3 .. 2^64-1 are invalid.
type CellID uint64

const (
	// MinResolution and MaxResolution bound the hierarchy depth.
	MinResolution = 0
	MaxResolution = 30

	// NumBaseCells is the number of resolution-0 cells, one per
	// dodecahedron face. The base cells are the identifiers 1..12.
	NumBaseCells = 12

	// maxCell is the last resolution-30 cell, offset(30) + 12*4^30 - 1.
	maxCell = ^CellID(0) - 3
)

// offset returns the first identifier of the given resolution.
func offset(res int) CellID {
	return CellID(1)<<(2*uint(res+1)) - 3
}

// Encode packs a base cell, a resolution and a child-digit path into an
// identifier. The path carries one digit in [0,4) per level and must hold
// exactly res digits (nil at resolution 0).
func Encode(base, res int, path []uint8) (CellID, error) {
	if base < 0 || base >= NumBaseCells {
		return 0, fmt.Errorf("%w: base cell %d out of [0,%d)", ErrEncoding, base, NumBaseCells)
	}
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("%w: resolution %d out of [%d,%d]", ErrEncoding, res, MinResolution, MaxResolution)
	}
	if len(path) != res {
		return 0, fmt.Errorf("%w: %d path digits for resolution %d", ErrEncoding, len(path), res)
	}
	rel := CellID(base)
	for _, d := range path {
		if d > 3 {
			return 0, fmt.Errorf("%w: child digit %d out of [0,4)", ErrEncoding, d)
		}
		rel = rel<<2 | CellID(d)
	}
	return offset(res) + rel, nil
}

// Decode splits an identifier into base cell, resolution and child-digit
// path. The path is freshly allocated, empty at resolution 0.
func Decode(c CellID) (base, res int, path []uint8, err error) {
	res = c.Resolution()
	if res < 0 {
		return 0, 0, nil, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
	}
	rel := c - offset(res)
	path = make([]uint8, res)
	for i := res - 1; i >= 0; i-- {
		path[i] = uint8(rel & 3)
		rel >>= 2
	}
	return int(rel), res, path, nil
}

// Resolution returns the cell's depth in [0,30], or -1 for an invalid
// identifier. Constant time: the position of the leading bit of id+3 is
// the resolution marker.
func (c CellID) Resolution() int {
	if c == 0 || c > maxCell {
		return -1
	}
	return (bits.Len64(uint64(c)+3)-1)/2 - 1
}

// Valid reports whether c encodes a cell.
func (c CellID) Valid() bool { return c.Resolution() >= 0 }

// Base returns the index of the resolution-0 ancestor in [0,12), or -1
// for an invalid identifier.
func (c CellID) Base() int {
	res := c.Resolution()
	if res < 0 {
		return -1
	}
	return int((c - offset(res)) >> (2 * uint(res)))
}

// ChildDigit returns the radix-4 child selector chosen at the given level;
// level 1 picks among the base cell's children. It returns -1 when the
// identifier is invalid or the level is outside [1, resolution].
func (c CellID) ChildDigit(level int) int {
	res := c.Resolution()
	if res < 0 || level < 1 || level > res {
		return -1
	}
	return int((c - offset(res)) >> (2 * uint(res-level)) & 3)
}
