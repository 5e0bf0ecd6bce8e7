package nearest

import (
	"fmt"
	"sort"

	"github.com/golang/geo/s2"
	"github.com/viant/vec/search"

	"github.com/viant/sqlite-a5/a5"
)

// rerankSlack is how many candidates beyond k survive the float32 scan
// into the exact re-ranking pass.
const rerankSlack = 8

// Index is a brute-force nearest-cell-center index. Build precomputes the
// representative point of every cell as a unit vector; Query scans all of
// them. Suitable for coverages up to a few hundred thousand cells.
type Index struct {
	cells   []a5.CellID
	centers [][]float32
	exact   []s2.Point
}

// Build loads the cells and precomputes their center vectors. The input
// slice is copied and may be reused by the caller.
func (i *Index) Build(cells []a5.CellID) error {
	if len(cells) == 0 {
		i.cells, i.centers, i.exact = nil, nil, nil
		return nil
	}
	owned := append([]a5.CellID(nil), cells...)
	centers := make([][]float32, len(owned))
	exact := make([]s2.Point, len(owned))
	for j, c := range owned {
		ll, err := a5.CellToLonLat(c)
		if err != nil {
			return err
		}
		p := s2.PointFromLatLng(s2.LatLngFromDegrees(ll.Lat, ll.Lon))
		exact[j] = p
		centers[j] = []float32{float32(p.X), float32(p.Y), float32(p.Z)}
	}
	i.cells = owned
	i.centers = centers
	i.exact = exact
	return nil
}

// Query returns up to k cells whose centers lie closest to the given
// coordinate, with great-circle distances in meters, ordered nearest
// first. k <= 0 returns all cells.
func (i *Index) Query(lon, lat float64, k int) ([]a5.CellID, []float64, error) {
	if len(i.cells) == 0 {
		return nil, nil, nil
	}
	if !(lon >= -180 && lon <= 180) || !(lat >= -90 && lat <= 90) {
		return nil, nil, fmt.Errorf("%w: lon %v, lat %v", a5.ErrOutOfRangeCoordinate, lon, lat)
	}
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	q := search.Float32s([]float32{float32(p.X), float32(p.Y), float32(p.Z)})

	type scored struct {
		idx  int
		dist float32
	}
	scoreds := make([]scored, len(i.centers))
	for j := range i.centers {
		scoreds[j] = scored{idx: j, dist: q.EuclideanDistance(i.centers[j])}
	}
	sort.Slice(scoreds, func(a, b int) bool { return scoreds[a].dist < scoreds[b].dist })
	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	m := k + rerankSlack
	if m > len(scoreds) {
		m = len(scoreds)
	}

	type verified struct {
		idx    int
		meters float64
	}
	top := make([]verified, m)
	for n := 0; n < m; n++ {
		j := scoreds[n].idx
		top[n] = verified{idx: j, meters: a5.EarthRadiusMeters * p.Distance(i.exact[j]).Radians()}
	}
	sort.Slice(top, func(a, b int) bool {
		if top[a].meters != top[b].meters {
			return top[a].meters < top[b].meters
		}
		return i.cells[top[a].idx] < i.cells[top[b].idx]
	})

	outCells := make([]a5.CellID, k)
	outMeters := make([]float64, k)
	for n := 0; n < k; n++ {
		outCells[n] = i.cells[top[n].idx]
		outMeters[n] = top[n].meters
	}
	return outCells, outMeters, nil
}
