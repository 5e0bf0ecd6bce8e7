// Package nearest provides a small brute-force nearest-cell-center index
// for snapping query points onto a set of cells. Candidates are scanned
// with vectorized float32 chord distances; the leaders are then verified
// with exact float64 great-circle distances before the final cut, so
// near-ties cannot reorder under float32 rounding.
package nearest
