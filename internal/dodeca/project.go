package dodeca

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Canonical face pentagon in the projected plane. Every face projects its
// five vertices onto the same regular pentagon because the tangent frames
// anchor vertex 0 at azimuth 0; one set of constants serves all twelve.
var (
	pentagonVerts   [5]r2.Point
	pentagonNormals [5]r2.Point // outward unit normal of edge k (vertex k to k+1)
	pentagonApothem float64
)

func initPentagon() {
	cosV := faces[0].verts[0].Dot(faces[0].axis)
	circum := 2 * math.Sin(math.Acos(cosV)/2)
	for k := 0; k < 5; k++ {
		ang := 2 * math.Pi * float64(k) / 5
		pentagonVerts[k] = r2.Point{X: circum * math.Cos(ang), Y: circum * math.Sin(ang)}
	}
	for k := 0; k < 5; k++ {
		n := pentagonVerts[k].Add(pentagonVerts[(k+1)%5]).Normalize()
		pentagonNormals[k] = n
	}
	pentagonApothem = pentagonNormals[0].Dot(pentagonVerts[0])
}

// Project maps a unit vector onto face f's plane with the Lambert azimuthal
// equal-area projection centered on the face axis: a point at angular
// distance theta from the axis lands at planar radius 2*sin(theta/2), so
// spherical area is preserved exactly.
func Project(f int, p r3.Vector) r2.Point {
	fc := &faces[f]
	z := p.Dot(fc.axis)
	s := math.Sqrt(2 / (1 + z))
	return r2.Point{X: p.Dot(fc.e1) * s, Y: p.Dot(fc.e2) * s}
}

// Unproject inverts Project for face f, returning a unit vector.
func Unproject(f int, q r2.Point) r3.Vector {
	fc := &faces[f]
	rho2 := q.X*q.X + q.Y*q.Y
	z := 1 - rho2/2
	t := math.Sqrt(math.Max(0, 1-rho2/4))
	return fc.axis.Mul(z).Add(fc.e1.Mul(q.X * t)).Add(fc.e2.Mul(q.Y * t))
}

// PentagonVertices returns the canonical projected face pentagon: vertex k
// sits at azimuth 2*pi*k/5 on the circumcircle.
func PentagonVertices() [5]r2.Point {
	return pentagonVerts
}

// ClampToPentagon pulls a projected point radially onto the pentagon
// boundary if it lies outside. Great-circle face edges project to arcs that
// bulge outward of the pentagon's straight edges, so points in those
// hairline slivers (and region-border points such as the poles) land here.
func ClampToPentagon(q r2.Point) r2.Point {
	worst := pentagonNormals[0].Dot(q)
	for k := 1; k < 5; k++ {
		if d := pentagonNormals[k].Dot(q); d > worst {
			worst = d
		}
	}
	if worst <= pentagonApothem {
		return q
	}
	return q.Mul(pentagonApothem / worst)
}
