package dodeca

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// FaceCount is the number of dodecahedron faces. Each face hosts one base
// cell of the index.
const FaceCount = 12

type face struct {
	axis  r3.Vector // unit outward face axis
	e1    r3.Vector // tangent frame; vertex 0 projects to azimuth 0
	e2    r3.Vector
	verts [5]r3.Vector // unit face vertices, counter-clockwise around axis
}

var faces [FaceCount]face

func init() {
	phi := (1 + math.Sqrt(5)) / 2

	// The face axes point at the vertices of the dual icosahedron.
	raw := [FaceCount]r3.Vector{
		{X: 0, Y: 1, Z: phi}, {X: 0, Y: 1, Z: -phi},
		{X: 0, Y: -1, Z: phi}, {X: 0, Y: -1, Z: -phi},
		{X: 1, Y: phi, Z: 0}, {X: 1, Y: -phi, Z: 0},
		{X: -1, Y: phi, Z: 0}, {X: -1, Y: -phi, Z: 0},
		{X: phi, Y: 0, Z: 1}, {X: phi, Y: 0, Z: -1},
		{X: -phi, Y: 0, Z: 1}, {X: -phi, Y: 0, Z: -1},
	}

	// Icosahedron faces are the vertex triples with pairwise squared
	// distance 4 (edge length 2 in these coordinates). Each triple's
	// normalized centroid is a dodecahedron vertex, and the five centroids
	// around an axis are that face's vertices.
	near := func(a, b r3.Vector) bool { return a.Sub(b).Norm2() < 5 }
	var perFace [FaceCount][]r3.Vector
	for i := 0; i < FaceCount; i++ {
		for j := i + 1; j < FaceCount; j++ {
			if !near(raw[i], raw[j]) {
				continue
			}
			for k := j + 1; k < FaceCount; k++ {
				if !near(raw[i], raw[k]) || !near(raw[j], raw[k]) {
					continue
				}
				v := raw[i].Add(raw[j]).Add(raw[k]).Normalize()
				perFace[i] = append(perFace[i], v)
				perFace[j] = append(perFace[j], v)
				perFace[k] = append(perFace[k], v)
			}
		}
	}

	for f := 0; f < FaceCount; f++ {
		axis := raw[f].Normalize()
		vs := perFace[f]
		if len(vs) != 5 {
			panic("dodeca: face vertex discovery failed")
		}
		anchor := 0
		for i := 1; i < 5; i++ {
			if lexLess(vs[i], vs[anchor]) {
				anchor = i
			}
		}
		e1 := vs[anchor].Sub(axis.Mul(vs[anchor].Dot(axis))).Normalize()
		e2 := axis.Cross(e1)

		type av struct {
			idx int
			az  float64
		}
		order := make([]av, 5)
		for i, v := range vs {
			order[i] = av{idx: i, az: math.Atan2(v.Dot(e2), v.Dot(e1))}
		}
		sort.Slice(order, func(a, b int) bool { return order[a].az < order[b].az })
		start := 0
		for i, o := range order {
			if o.idx == anchor {
				start = i
				break
			}
		}
		fc := face{axis: axis, e1: e1, e2: e2}
		for i := 0; i < 5; i++ {
			fc.verts[i] = vs[order[(start+i)%5].idx]
		}
		faces[f] = fc
	}

	initPentagon()
}

func lexLess(a, b r3.Vector) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// FaceOf returns the index of the face whose axis is nearest to the unit
// vector p. The twelve face regions are exactly the Voronoi cells of the
// axes, so this is exact point location at the coarsest level. Ties on a
// region border resolve to the lowest face index.
func FaceOf(p r3.Vector) int {
	best := 0
	bestDot := p.Dot(faces[0].axis)
	for f := 1; f < FaceCount; f++ {
		if d := p.Dot(faces[f].axis); d > bestDot {
			best, bestDot = f, d
		}
	}
	return best
}

// FaceVertices returns the five unit vertices of face f in counter-clockwise
// order as seen from outside the sphere.
func FaceVertices(f int) [5]r3.Vector {
	return faces[f].verts
}
