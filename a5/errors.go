package a5

import "errors"

// Sentinel errors for the index operations. Every failure returned by this
// package wraps one of these, so callers branch with errors.Is.
var (
	// ErrInvalidCell marks an identifier that does not encode a cell:
	// zero, or one of the three values past the last resolution-30 cell.
	ErrInvalidCell = errors.New("a5: invalid cell identifier")

	// ErrInvalidResolution marks a resolution outside [0,30], or one that
	// points the wrong way for the operation (a parent target finer than
	// the cell, an uncompact target coarser than an input).
	ErrInvalidResolution = errors.New("a5: invalid resolution")

	// ErrOutOfRangeCoordinate marks a longitude outside [-180,180] or a
	// latitude outside [-90,90]. NaN and infinities are rejected too.
	ErrOutOfRangeCoordinate = errors.New("a5: coordinate out of range")

	// ErrEncoding marks inconsistent encoding components.
	ErrEncoding = errors.New("a5: invalid encoding components")
)
