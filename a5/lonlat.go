package a5

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/viant/sqlite-a5/internal/dodeca"
	"github.com/viant/sqlite-a5/internal/sphinx"
)

// LonLat is a geographic coordinate in degrees.
type LonLat struct {
	Lon, Lat float64
}

// LonLatToCell locates the cell containing a coordinate at the given
// resolution. Longitude must lie in [-180,180], latitude in [-90,90];
// validation is strict, so NaN and infinities are rejected rather than
// clamped. The pipeline projects the point onto its nearest dodecahedron
// face with a Lambert azimuthal equal-area projection, carries it through
// the equal-area fan map into the subdivision plane, and descends one
// child digit per level. Points on a cell border resolve to one side
// deterministically.
func LonLatToCell(lon, lat float64, res int) (CellID, error) {
	if !(lon >= -180 && lon <= 180) {
		return 0, fmt.Errorf("%w: longitude %v", ErrOutOfRangeCoordinate, lon)
	}
	if !(lat >= -90 && lat <= 90) {
		return 0, fmt.Errorf("%w: latitude %v", ErrOutOfRangeCoordinate, lat)
	}
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	face := dodeca.FaceOf(p.Vector)
	if res == 0 {
		return CellID(face + 1), nil
	}
	// The straight-edged reference pentagon sits strictly inside the
	// face's spherical region, whose projected edges bulge outward, so
	// points of the outer sliver are pulled onto the pentagon border.
	q := dodeca.ClampToPentagon(dodeca.Project(face, p.Vector))
	return Encode(face, res, sphinx.Descend(sphinx.FromPentagon(q), res))
}

// CellToLonLat returns the cell's representative point: the image of the
// reference tile's plane centroid under the cell transform, carried back
// through the inverse fan map and inverse projection. The point is
// strictly interior to the cell, so relocating it at the cell's own
// resolution returns the same cell, and relocating it coarser returns the
// cell's ancestor.
func CellToLonLat(c CellID) (LonLat, error) {
	base, _, path, err := Decode(c)
	if err != nil {
		return LonLat{}, err
	}
	v := dodeca.Unproject(base, sphinx.ToPentagon(sphinx.CellCenter(path)))
	ll := s2.LatLngFromPoint(s2.Point{Vector: v})
	return LonLat{Lon: ll.Lng.Degrees(), Lat: ll.Lat.Degrees()}, nil
}
