package cellset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"

	"github.com/viant/sqlite-a5/a5"
)

// Set is a mutable set of cell identifiers backed by a 64-bit roaring
// bitmap. Membership is deduplicated and iteration is ascending, which
// orders cells coarse to fine because identifiers partition by resolution
// into consecutive intervals. Construct sets with New or FromCells; a Set
// is not safe for concurrent mutation.
type Set struct {
	bits *roaring64.Bitmap
}

// New creates an empty set.
func New() *Set {
	return &Set{bits: roaring64.New()}
}

// FromCells builds a set holding the given cells. Duplicates collapse.
func FromCells(cells []a5.CellID) (*Set, error) {
	s := New()
	if err := s.AddMany(cells); err != nil {
		return nil, err
	}
	return s, nil
}

// Add inserts a single cell.
func (s *Set) Add(c a5.CellID) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", a5.ErrInvalidCell, uint64(c))
	}
	s.bits.Add(uint64(c))
	return nil
}

// AddMany inserts a batch of cells. The batch is validated up front so a
// failed call leaves the set unchanged.
func (s *Set) AddMany(cells []a5.CellID) error {
	if len(cells) == 0 {
		return nil
	}
	buf := make([]uint64, len(cells))
	for i, c := range cells {
		if !c.Valid() {
			return fmt.Errorf("%w: %d", a5.ErrInvalidCell, uint64(c))
		}
		buf[i] = uint64(c)
	}
	s.bits.AddMany(buf)
	return nil
}

// AddChildren inserts every descendant of c at resolution res. Descendants
// of a cell occupy one contiguous identifier range, so the insertion is a
// single bitmap range update regardless of how many cells it covers.
func (s *Set) AddChildren(c a5.CellID, res int) error {
	base, cres, path, err := a5.Decode(c)
	if err != nil {
		return err
	}
	if res < cres || res > a5.MaxResolution {
		return fmt.Errorf("%w: cannot expand resolution %d cell to resolution %d", a5.ErrInvalidResolution, cres, res)
	}
	lo := make([]uint8, res)
	hi := make([]uint8, res)
	copy(lo, path)
	copy(hi, path)
	for i := cres; i < res; i++ {
		hi[i] = 3
	}
	first, err := a5.Encode(base, res, lo)
	if err != nil {
		return err
	}
	last, err := a5.Encode(base, res, hi)
	if err != nil {
		return err
	}
	s.bits.AddRange(uint64(first), uint64(last)+1)
	return nil
}

// Contains reports whether c is in the set.
func (s *Set) Contains(c a5.CellID) bool {
	return s.bits.Contains(uint64(c))
}

// Cardinality returns the number of cells in the set.
func (s *Set) Cardinality() uint64 {
	return s.bits.GetCardinality()
}

// IsEmpty reports whether the set holds no cells.
func (s *Set) IsEmpty() bool {
	return s.bits.IsEmpty()
}

// Cells returns the set contents in ascending identifier order.
func (s *Set) Cells() []a5.CellID {
	out := make([]a5.CellID, 0, s.bits.GetCardinality())
	it := s.bits.Iterator()
	for it.HasNext() {
		out = append(out, a5.CellID(it.Next()))
	}
	return out
}

// Compact returns the minimal ascending list of cells covering exactly the
// region of the set: every complete sibling quartet collapses into its
// parent, cascading toward resolution zero. The receiver is unchanged.
func (s *Set) Compact() []a5.CellID {
	bits := s.bits.Clone()
	for res := a5.MaxResolution; res >= 1; res-- {
		lo, hi := resolutionSpan(res)
		parentLo, _ := resolutionSpan(res - 1)
		drop := roaring64.New()
		add := roaring64.New()
		it := bits.Iterator()
		it.AdvanceIfNeeded(lo)
		for it.HasNext() {
			v := it.Next()
			if v > hi {
				break
			}
			// A mergeable quartet starts at an identifier aligned to its
			// parent and runs four consecutive values.
			if (v-lo)&3 != 0 || !bits.Contains(v+1) || !bits.Contains(v+2) || !bits.Contains(v+3) {
				continue
			}
			drop.AddRange(v, v+4)
			add.Add(parentLo + (v-lo)>>2)
			it.AdvanceIfNeeded(v + 4)
		}
		if drop.IsEmpty() {
			continue
		}
		bits.AndNot(drop)
		bits.Or(add)
	}
	out := make([]a5.CellID, 0, bits.GetCardinality())
	it := bits.Iterator()
	for it.HasNext() {
		out = append(out, a5.CellID(it.Next()))
	}
	return out
}

// Fingerprint returns a 64-bit hash of the set contents. Equal sets hash
// equally regardless of insertion order or internal bitmap layout, so the
// value is usable as a cache key for derived results.
func (s *Set) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	it := s.bits.Iterator()
	for it.HasNext() {
		binary.LittleEndian.PutUint64(buf[:], it.Next())
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// WriteTo serializes the set to w in the portable roaring format.
func (s *Set) WriteTo(w io.Writer) (int64, error) {
	return s.bits.WriteTo(w)
}

// ReadFrom replaces the set contents with a bitmap read from r, as written
// by WriteTo. The stream is rejected when it carries values outside the
// valid identifier range.
func (s *Set) ReadFrom(r io.Reader) (int64, error) {
	bits := roaring64.New()
	n, err := bits.ReadFrom(r)
	if err != nil {
		return n, err
	}
	if !bits.IsEmpty() {
		_, last := resolutionSpan(a5.MaxResolution)
		if bits.Minimum() < 1 || bits.Maximum() > last {
			return n, fmt.Errorf("%w: serialized set holds out-of-range values", a5.ErrInvalidCell)
		}
	}
	s.bits = bits
	return n, nil
}

// resolutionSpan returns the first and last identifiers of a resolution.
func resolutionSpan(res int) (first, last uint64) {
	f, _ := a5.Encode(0, res, make([]uint8, res))
	n, _ := a5.NumCells(res)
	return uint64(f), uint64(f) + n - 1
}
