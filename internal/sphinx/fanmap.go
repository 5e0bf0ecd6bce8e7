package sphinx

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viant/sqlite-a5/internal/dodeca"
)

// The projected face pentagon and the doubled tile are matched by a
// piecewise-linear map with uniform Jacobian, so the Lambert projection's
// area preservation carries all the way into the tile plane. Both regions
// are fanned from a point they are star-shaped around (the pentagon from
// its center, the doubled tile from its first corner, both at the origin),
// both boundaries are parametrized by the fraction of fan area swept, and
// triangles between consecutive breakpoints of either side are paired off.
// Equal sweep fractions mean equal areas piece by piece, hence one global
// scale factor.

var sqrt3 = math.Sqrt(3)

// Doubled-tile corners in Cartesian plane coordinates.
var domainCorners = [5]r2.Point{
	{X: 0, Y: 0},
	{X: 6, Y: 0},
	{X: 5, Y: sqrt3},
	{X: 3, Y: sqrt3},
	{X: 2, Y: 2 * sqrt3},
}

type fanPiece struct {
	pb, pe r2.Point   // pentagon-side spokes
	db, de r2.Point   // domain-side spokes
	fwd    [4]float64 // linear map pentagon -> domain
	inv    [4]float64
}

var fanPieces [7]fanPiece

func init() {
	// Pentagon corners sit at sweep fractions k/5; domain corners at
	// 1/2 and 2/3 of its fan. The union gives seven matched pieces.
	taus := [8]float64{0, 0.2, 0.4, 0.5, 0.6, 2.0 / 3, 0.8, 1}
	pv := dodeca.PentagonVertices()
	for i := 0; i < 7; i++ {
		p := fanPiece{
			pb: pentagonBoundary(pv, taus[i]),
			pe: pentagonBoundary(pv, taus[i+1]),
			db: domainBoundary(taus[i]),
			de: domainBoundary(taus[i+1]),
		}
		p.fwd = solveLinear(p.pb, p.pe, p.db, p.de)
		p.inv = solveLinear(p.db, p.de, p.pb, p.pe)
		fanPieces[i] = p
	}
}

// pentagonBoundary walks the pentagon boundary by fan-area fraction tau.
// Fan triangles from the center sweep area linearly along each edge, so the
// edge-local parameter is the area fraction itself.
func pentagonBoundary(pv [5]r2.Point, tau float64) r2.Point {
	s := 5 * tau
	k := int(s)
	if k >= 5 {
		return pv[0]
	}
	return lerp(pv[k], pv[(k+1)%5], s-float64(k))
}

// domainBoundary walks the doubled-tile boundary from its second corner by
// fan-area fraction: the three swept edges carry 1/2, 1/6 and 1/3 of the
// fan area.
func domainBoundary(tau float64) r2.Point {
	switch {
	case tau <= 0.5:
		return lerp(domainCorners[1], domainCorners[2], 2*tau)
	case tau <= 2.0/3:
		return lerp(domainCorners[2], domainCorners[3], 6*(tau-0.5))
	default:
		return lerp(domainCorners[3], domainCorners[4], 3*(tau-2.0/3))
	}
}

func lerp(a, b r2.Point, t float64) r2.Point {
	return r2.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
}

// solveLinear returns the linear map sending b1 to c1 and b2 to c2.
func solveLinear(b1, b2, c1, c2 r2.Point) [4]float64 {
	det := b1.X*b2.Y - b1.Y*b2.X
	return [4]float64{
		(c1.X*b2.Y - c2.X*b1.Y) / det,
		(c2.X*b1.X - c1.X*b2.X) / det,
		(c1.Y*b2.Y - c2.Y*b1.Y) / det,
		(c2.Y*b1.X - c1.Y*b2.X) / det,
	}
}

func applyLinear(m [4]float64, p r2.Point) r2.Point {
	return r2.Point{X: m[0]*p.X + m[1]*p.Y, Y: m[2]*p.X + m[3]*p.Y}
}

// FromPentagon maps a point of the projected face pentagon into the doubled
// tile region, in axial coordinates. Points on the seam spoke toward the
// pentagon's first vertex take the sweep-start side.
func FromPentagon(q r2.Point) Coord {
	i := 6
	for k := 0; k < 7; k++ {
		if fanPieces[k].pb.Cross(q) >= 0 && q.Cross(fanPieces[k].pe) >= 0 {
			i = k
			break
		}
	}
	return toAxial(applyLinear(fanPieces[i].fwd, q))
}

// ToPentagon maps a point of the doubled tile region back into the
// projected face pentagon.
func ToPentagon(c Coord) r2.Point {
	p := toCartesian(c)
	i := 6
	for k := 0; k < 7; k++ {
		if fanPieces[k].db.Cross(p) >= 0 && p.Cross(fanPieces[k].de) >= 0 {
			i = k
			break
		}
	}
	return applyLinear(fanPieces[i].inv, p)
}

func toCartesian(c Coord) r2.Point {
	return r2.Point{X: c.U + c.V/2, Y: c.V * sqrt3 / 2}
}

func toAxial(p r2.Point) Coord {
	v := 2 * p.Y / sqrt3
	return Coord{U: p.X - v/2, V: v}
}
