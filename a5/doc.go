// Package a5 implements a hierarchical, equal-area global spatial index
// over nested pentagonal cells. The sphere is split into the twelve face
// regions of a spherical dodecahedron; each face subdivides four ways per
// resolution level, down to resolution 30. A cell is a single 64-bit
// self-describing identifier, and every operation is a pure function over
// value inputs, safe for unlimited concurrent use.
//
// Operations:
//   - LonLatToCell / CellToLonLat convert between geographic coordinates
//     and cells
//   - CellToParent / CellToChildren / CellToChildrenAt navigate the
//     hierarchy by bit arithmetic alone
//   - CellToBoundary renders a cell's pentagon with geodesic edges
//   - Compact / Uncompact minimize and restore cell sets
package a5
