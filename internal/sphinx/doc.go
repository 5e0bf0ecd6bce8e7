// Package sphinx implements the planar subdivision behind the cell
// hierarchy. Cells live in an axial lattice plane as copies of a reference
// sphinx tile, the rep-4 pentagonal reptile: doubling the tile yields a
// region that four copies of the tile dissect exactly, which gives every
// cell four congruent children of a quarter of its area. The package
// provides exact point location down the hierarchy, the affine transform of
// any cell, and the equal-area piecewise-linear map between the projected
// face pentagon and the tile plane.
package sphinx
