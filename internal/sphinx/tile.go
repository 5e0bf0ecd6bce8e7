package sphinx

import "math"

// Coord is a point in axial lattice coordinates of the tile plane. The
// Cartesian position of (U, V) is (U + V/2, V*sqrt(3)/2).
type Coord struct {
	U, V float64
}

// Reference tile: corners counter-clockwise, sides of length 3, 1, 1, 1, 2
// in lattice units, reflex corner at index 3. Six unit triangles of area.
var tileCorners = [5]Coord{{0, 0}, {3, 0}, {2, 1}, {1, 1}, {0, 2}}

// Plane centroid of the reference tile, strictly interior with wide margin.
var tileCentroid = Coord{U: 10.0 / 9, V: 11.0 / 18}

// Contains reports whether p lies in the closed reference tile.
func Contains(p Coord) bool {
	return p.U >= 0 && p.V >= 0 && p.U+p.V <= 3 && (p.U+p.V <= 2 || p.V <= 1)
}

// affine is a plane map p -> M*p + t in axial coordinates.
type affine struct {
	a, b, c, d float64 // linear part, row-major
	tu, tv     float64
}

func (m affine) apply(p Coord) Coord {
	return Coord{
		U: m.a*p.U + m.b*p.V + m.tu,
		V: m.c*p.U + m.d*p.V + m.tv,
	}
}

// compose returns the map that applies n first, then m.
func (m affine) compose(n affine) affine {
	return affine{
		a:  m.a*n.a + m.b*n.c,
		b:  m.a*n.b + m.b*n.d,
		c:  m.c*n.a + m.d*n.c,
		d:  m.c*n.b + m.d*n.d,
		tu: m.a*n.tu + m.b*n.tv + m.tu,
		tv: m.c*n.tu + m.d*n.tv + m.tv,
	}
}

func (m affine) scaled(f float64) affine {
	return affine{a: m.a * f, b: m.b * f, c: m.c * f, d: m.d * f, tu: m.tu * f, tv: m.tv * f}
}

// The four placements of the reference tile inside its doubled region,
// in child-digit order. Consecutive digits share an edge: the top tile is
// a rotation, the other three are reflections.
//
//	0 top:          (u, v) -> (v, 4-u-v)
//	1 bottom-left:  (u, v) -> (3-u-v, v)
//	2 center:       (u, v) -> (u+v+1, 2-v)
//	3 bottom-right: (u, v) -> (6-u-v, v)
var childMaps = [4]affine{
	{a: 0, b: 1, c: -1, d: -1, tu: 0, tv: 4},
	{a: -1, b: -1, c: 0, d: 1, tu: 3, tv: 0},
	{a: 1, b: 1, c: 0, d: -1, tu: 1, tv: 2},
	{a: -1, b: -1, c: 0, d: 1, tu: 6, tv: 0},
}

var childInverses = [4]affine{
	{a: -1, b: -1, c: 1, d: 0, tu: 4, tv: 0},
	{a: -1, b: -1, c: 0, d: 1, tu: 3, tv: 0},
	{a: 1, b: 1, c: 0, d: -1, tu: -3, tv: 2},
	{a: -1, b: -1, c: 0, d: 1, tu: 6, tv: 0},
}

var childMirrored = [4]bool{false, true, true, true}

// Descend locates a point of the doubled region through depth levels of
// subdivision and returns one child digit per level, coarsest first. All
// transform arithmetic is dyadic-rational, so the digit sequence for a
// point is exact and truncating it reproduces the coarser location.
func Descend(p Coord, depth int) []uint8 {
	digits := make([]uint8, 0, depth)
	q := Coord{U: p.U / 2, V: p.V / 2}
	for i := 0; i < depth; i++ {
		s := Coord{U: 2 * q.U, V: 2 * q.V}
		d, next := locateChild(s)
		digits = append(digits, d)
		q = next
	}
	return digits
}

// locateChild finds which child tile of the doubled region contains s and
// returns the point rebased into that child's own reference frame. Closed
// containment with first-match-wins keeps shared-edge points deterministic.
func locateChild(s Coord) (uint8, Coord) {
	for d := 0; d < 4; d++ {
		q := childInverses[d].apply(s)
		if Contains(q) {
			return uint8(d), q
		}
	}
	// Floating-point dust can push a border point a hair outside every
	// child; take the least-violating one.
	best, bestScore := 0, math.Inf(1)
	var bestQ Coord
	for d := 0; d < 4; d++ {
		q := childInverses[d].apply(s)
		if sc := violation(q); sc < bestScore {
			best, bestScore, bestQ = d, sc, q
		}
	}
	return uint8(best), bestQ
}

func violation(p Coord) float64 {
	v := math.Max(-p.U, 0)
	v = math.Max(v, math.Max(-p.V, 0))
	v = math.Max(v, math.Max(p.U+p.V-3, 0))
	v = math.Max(v, math.Min(math.Max(p.U+p.V-2, 0), math.Max(p.V-1, 0)))
	return v
}

// cellTransform composes the map from the reference tile onto the cell with
// the given digit path. The empty path yields the resolution-0 region, the
// doubled tile.
func cellTransform(path []uint8) affine {
	t := affine{a: 2, d: 2}
	for _, d := range path {
		t = t.compose(childMaps[d].scaled(0.5))
	}
	return t
}

// CellCenter returns the image of the reference tile's centroid under the
// cell's transform: a representative point strictly interior to the cell.
func CellCenter(path []uint8) Coord {
	return cellTransform(path).apply(tileCentroid)
}

// CellCorners returns the five corners of the cell with the given digit
// path, counter-clockwise, starting at the image of the reference tile's
// first corner. Reflected cells are rewound so the winding is uniform.
func CellCorners(path []uint8) [5]Coord {
	t := cellTransform(path)
	var c [5]Coord
	for i, p := range tileCorners {
		c[i] = t.apply(p)
	}
	odd := false
	for _, d := range path {
		if childMirrored[d] {
			odd = !odd
		}
	}
	if odd {
		c[1], c[4] = c[4], c[1]
		c[2], c[3] = c[3], c[2]
	}
	return c
}
