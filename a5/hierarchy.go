package a5

import "fmt"

// CellToParent returns the ancestor of c at the target resolution, which
// must lie in [0, resolution(c)]. A target equal to the cell's own
// resolution returns the cell unchanged.
func CellToParent(c CellID, targetRes int) (CellID, error) {
	res := c.Resolution()
	if res < 0 {
		return 0, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
	}
	if targetRes < MinResolution || targetRes > res {
		return 0, fmt.Errorf("%w: parent target %d for resolution-%d cell", ErrInvalidResolution, targetRes, res)
	}
	return offset(targetRes) + (c-offset(res))>>(2*uint(res-targetRes)), nil
}

// CellToChildren returns the four immediate children of c in child-digit
// order. Resolution-30 cells have no children.
func CellToChildren(c CellID) ([]CellID, error) {
	res := c.Resolution()
	if res < 0 {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
	}
	return CellToChildrenAt(c, res+1)
}

// CellToChildrenAt returns every descendant of c at the target resolution:
// 4^(target-res) cells forming one contiguous ascending run. A target equal
// to the cell's own resolution returns just the cell; coarser targets fail.
func CellToChildrenAt(c CellID, targetRes int) ([]CellID, error) {
	res := c.Resolution()
	if res < 0 {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
	}
	if targetRes < res || targetRes > MaxResolution {
		return nil, fmt.Errorf("%w: children target %d for resolution-%d cell", ErrInvalidResolution, targetRes, res)
	}
	shift := 2 * uint(targetRes-res)
	first := offset(targetRes) + (c-offset(res))<<shift
	out := make([]CellID, CellID(1)<<shift)
	for i := range out {
		out[i] = first + CellID(i)
	}
	return out, nil
}
