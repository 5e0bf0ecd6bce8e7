package a5

import (
	"errors"
	"testing"
)

func equalCells(a, b []CellID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompactSiblingQuartet(t *testing.T) {
	parent, err := Encode(5, 3, []uint8{2, 1, 0})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	got, err := Compact(kids)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(got, []CellID{parent}) {
		t.Fatalf("Compact(children) = %v, want [%d]", got, parent)
	}

	// Three of four siblings form no complete group and pass through.
	partial, err := Compact(kids[:3])
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(partial, kids[:3]) {
		t.Fatalf("Compact(three siblings) = %v, want %v", partial, kids[:3])
	}
}

func TestCompactCascades(t *testing.T) {
	top, err := Encode(1, 2, []uint8{3, 2})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	leaves, err := CellToChildrenAt(top, 4)
	if err != nil {
		t.Fatalf("CellToChildrenAt error: %v", err)
	}
	got, err := Compact(leaves)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(got, []CellID{top}) {
		t.Fatalf("Compact(16 grandchildren) = %v, want [%d]", got, top)
	}
}

func TestCompactAlignmentMatters(t *testing.T) {
	p, err := Encode(2, 2, []uint8{0, 1})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	a, err := CellToChildren(p)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	b, err := CellToChildren(p + 1)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	// Four consecutive identifiers straddling two parents must not merge.
	run := []CellID{a[1], a[2], a[3], b[0]}
	got, err := Compact(run)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(got, run) {
		t.Fatalf("Compact(straddling run) = %v, want %v", got, run)
	}
}

func TestCompactDeduplicatesAndMixes(t *testing.T) {
	parent, err := Encode(5, 3, []uint8{2, 1, 0})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	other, err := Encode(9, 1, []uint8{2})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	in := []CellID{kids[3], other, kids[0], kids[3], parent, kids[1], kids[2]}
	got, err := Compact(in)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	want := []CellID{other, parent}
	if parent < other {
		want = []CellID{parent, other}
	}
	if !equalCells(got, want) {
		t.Fatalf("Compact(%v) = %v, want %v", in, got, want)
	}
}

func TestCompactIdempotentAndDeterministic(t *testing.T) {
	parent, err := Encode(3, 4, []uint8{1, 1, 2, 0})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	lone, err := Encode(11, 2, []uint8{3, 3})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	in := []CellID{kids[2], lone, kids[0], kids[3], kids[1]}
	once, err := Compact(in)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	twice, err := Compact(once)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(once, twice) {
		t.Fatalf("Compact not idempotent: %v then %v", once, twice)
	}
	reordered := []CellID{lone, kids[3], kids[1], kids[0], kids[2]}
	again, err := Compact(reordered)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(once, again) {
		t.Fatalf("Compact order-sensitive: %v vs %v", once, again)
	}
}

func TestCompactBaseCellsAndErrors(t *testing.T) {
	got, err := Compact(Res0Cells())
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	if !equalCells(got, Res0Cells()) {
		t.Fatalf("Compact(base cells) = %v, want the twelve base cells", got)
	}
	if _, err := Compact([]CellID{1, 0}); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("Compact with invalid cell error = %v, want ErrInvalidCell", err)
	}
}

func TestUncompact(t *testing.T) {
	parent, err := Encode(6, 2, []uint8{1, 3})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	got, err := Uncompact([]CellID{parent}, 3)
	if err != nil {
		t.Fatalf("Uncompact error: %v", err)
	}
	if !equalCells(got, kids) {
		t.Fatalf("Uncompact(parent, res+1) = %v, want children %v", got, kids)
	}

	same, err := Uncompact([]CellID{parent}, 2)
	if err != nil {
		t.Fatalf("Uncompact error: %v", err)
	}
	if !equalCells(same, []CellID{parent}) {
		t.Fatalf("Uncompact at own resolution = %v, want [%d]", same, parent)
	}

	// An input overlapping its own ancestor expands to one copy.
	overlap, err := Uncompact([]CellID{parent, kids[2]}, 4)
	if err != nil {
		t.Fatalf("Uncompact error: %v", err)
	}
	full, err := CellToChildrenAt(parent, 4)
	if err != nil {
		t.Fatalf("CellToChildrenAt error: %v", err)
	}
	if !equalCells(overlap, full) {
		t.Fatalf("Uncompact with nested input = %v, want %v", overlap, full)
	}

	if _, err := Uncompact([]CellID{kids[0]}, 2); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("ascending uncompact error = %v, want ErrInvalidResolution", err)
	}
	if _, err := Uncompact([]CellID{parent}, 31); !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("out-of-range target error = %v, want ErrInvalidResolution", err)
	}
	if _, err := Uncompact([]CellID{0}, 3); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("invalid cell error = %v, want ErrInvalidCell", err)
	}
}

func TestCompactUncompactRoundTrip(t *testing.T) {
	parent, err := Encode(8, 3, []uint8{0, 2, 3})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	stray, err := Encode(8, 4, []uint8{3, 3, 3, 3})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	s := append(append([]CellID{}, kids...), stray)
	compacted, err := Compact(s)
	if err != nil {
		t.Fatalf("Compact error: %v", err)
	}
	a, err := Uncompact(compacted, 6)
	if err != nil {
		t.Fatalf("Uncompact error: %v", err)
	}
	b, err := Uncompact(s, 6)
	if err != nil {
		t.Fatalf("Uncompact error: %v", err)
	}
	if !equalCells(a, b) {
		t.Fatalf("uncompact after compact differs: %d cells vs %d", len(a), len(b))
	}
}

func TestUncompactAncestorSharingFirstChild(t *testing.T) {
	parent, err := Encode(6, 2, []uint8{1, 3})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	kids, err := CellToChildren(parent)
	if err != nil {
		t.Fatalf("CellToChildren error: %v", err)
	}
	want, err := CellToChildrenAt(parent, 4)
	if err != nil {
		t.Fatalf("CellToChildrenAt error: %v", err)
	}
	// kids[0] leads its parent's descendant run, so both inputs expand to
	// runs starting at the same identifier.
	for _, input := range [][]CellID{
		{kids[0], parent},
		{parent, kids[0]},
	} {
		got, err := Uncompact(input, 4)
		if err != nil {
			t.Fatalf("Uncompact(%v, 4) error: %v", input, err)
		}
		if !equalCells(got, want) {
			t.Fatalf("Uncompact(%v, 4) = %d cells, want the %d descendants of %d", input, len(got), len(want), parent)
		}
		for i := 1; i < len(got); i++ {
			if got[i] <= got[i-1] {
				t.Fatalf("Uncompact(%v, 4) not strictly ascending at %d: %v", input, i, got[i-1:i+1])
			}
		}
	}
}
