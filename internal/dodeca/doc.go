// Package dodeca models the spherical dodecahedron that carries the twelve
// base cells of the index: the face axes, the five vertices around each
// face, per-face tangent frames, nearest-face selection, and the Lambert
// azimuthal equal-area projection between the unit sphere and each face
// plane. All tables are computed once at init from exact golden-ratio
// constants and never mutated afterwards.
package dodeca
