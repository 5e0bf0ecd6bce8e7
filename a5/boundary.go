package a5

import (
	"github.com/golang/geo/s2"

	"github.com/viant/sqlite-a5/internal/dodeca"
	"github.com/viant/sqlite-a5/internal/sphinx"
)

// BoundaryOption adjusts boundary generation.
type BoundaryOption func(*boundaryConfig)

type boundaryConfig struct {
	segments int
	open     bool
}

// WithSegments sets the number of great-circle sub-segments per pentagon
// edge. Counts of zero or less select the resolution-dependent default.
func WithSegments(n int) BoundaryOption {
	return func(cfg *boundaryConfig) { cfg.segments = n }
}

// WithOpenRing leaves the ring open instead of repeating the first vertex
// at the end.
func WithOpenRing() BoundaryOption {
	return func(cfg *boundaryConfig) { cfg.open = true }
}

// defaultSegments halves the per-edge subdivision as cells shrink, keeping
// the chord-to-arc error below a fixed angular tolerance at face scale.
func defaultSegments(res int) int {
	if res >= 4 {
		return 1
	}
	return 16 >> uint(res)
}

// CellToBoundary returns the cell's pentagon as an ordered ring of
// geographic vertices, counter-clockwise seen from outside the sphere,
// with every edge subdivided along its great circle. By default the ring
// is closed (first vertex repeated at the end) and the per-edge segment
// count is the resolution-dependent default, so a ring holds
// 5*segments+1 vertices.
//
// The zero identifier yields an empty ring and no error, a deliberate
// tolerance so batch callers can stream rows with missing cells; every
// other malformed identifier fails with ErrInvalidCell.
func CellToBoundary(c CellID, opts ...BoundaryOption) ([]LonLat, error) {
	if c == 0 {
		return []LonLat{}, nil
	}
	base, res, path, err := Decode(c)
	if err != nil {
		return nil, err
	}
	var cfg boundaryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.segments < 1 {
		cfg.segments = defaultSegments(res)
	}
	var corners [5]s2.Point
	if res == 0 {
		// Resolution-0 cells are bounded by true dodecahedron edges.
		for i, v := range dodeca.FaceVertices(base) {
			corners[i] = s2.Point{Vector: v}
		}
	} else {
		for i, p := range sphinx.CellCorners(path) {
			corners[i] = s2.Point{Vector: dodeca.Unproject(base, sphinx.ToPentagon(p))}
		}
	}
	out := make([]LonLat, 0, 5*cfg.segments+1)
	for e := 0; e < 5; e++ {
		a, b := corners[e], corners[(e+1)%5]
		for k := 0; k < cfg.segments; k++ {
			out = append(out, toLonLat(s2.Interpolate(float64(k)/float64(cfg.segments), a, b)))
		}
	}
	if !cfg.open {
		out = append(out, out[0])
	}
	return out, nil
}

func toLonLat(p s2.Point) LonLat {
	ll := s2.LatLngFromPoint(p)
	return LonLat{Lon: ll.Lng.Degrees(), Lat: ll.Lat.Degrees()}
}
