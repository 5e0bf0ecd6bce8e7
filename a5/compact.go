package a5

import (
	"fmt"
	"sort"
)

// Compact reduces a set of cells to the smallest equivalent covering set:
// every complete quartet of siblings collapses into its parent, cascading
// upward until no merge applies. Inputs may mix resolutions and contain
// duplicates. The result is deduplicated and sorted ascending, so equal
// input sets always compact to the identical slice.
func Compact(cells []CellID) ([]CellID, error) {
	var byRes [MaxResolution + 1][]CellID
	for _, c := range cells {
		res := c.Resolution()
		if res < 0 {
			return nil, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
		}
		byRes[res] = append(byRes[res], c)
	}
	out := make([]CellID, 0, len(cells))
	for res := MaxResolution; res >= 1; res-- {
		bucket := dedupe(byRes[res])
		for i := 0; i < len(bucket); {
			c := bucket[i]
			// A complete quartet is four consecutive identifiers whose
			// first is quartet-aligned.
			if (c-offset(res))&3 == 0 && i+3 < len(bucket) &&
				bucket[i+1] == c+1 && bucket[i+2] == c+2 && bucket[i+3] == c+3 {
				byRes[res-1] = append(byRes[res-1], offset(res-1)+(c-offset(res))>>2)
				i += 4
				continue
			}
			out = append(out, c)
			i++
		}
	}
	out = append(out, dedupe(byRes[0])...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// dedupe sorts a bucket and drops duplicates in place.
func dedupe(b []CellID) []CellID {
	if len(b) < 2 {
		return b
	}
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	n := 1
	for i := 1; i < len(b); i++ {
		if b[i] != b[n-1] {
			b[n] = b[i]
			n++
		}
	}
	return b[:n]
}

// Uncompact expands every cell to its full set of descendants at the
// target resolution. Cells already at the target pass through unchanged;
// a cell finer than the target fails, the hierarchy is only descended.
// Overlapping inputs (a cell alongside its own ancestor) contribute one
// copy of the shared range: the result is deduplicated, sorted ascending.
func Uncompact(cells []CellID, targetRes int) ([]CellID, error) {
	if targetRes < MinResolution || targetRes > MaxResolution {
		return nil, fmt.Errorf("%w: uncompact target %d", ErrInvalidResolution, targetRes)
	}
	type span struct{ first, last CellID }
	spans := make([]span, 0, len(cells))
	for _, c := range cells {
		res := c.Resolution()
		if res < 0 {
			return nil, fmt.Errorf("%w: %#x", ErrInvalidCell, uint64(c))
		}
		if res > targetRes {
			return nil, fmt.Errorf("%w: resolution-%d cell cannot uncompact to %d", ErrInvalidResolution, res, targetRes)
		}
		shift := 2 * uint(targetRes-res)
		first := offset(targetRes) + (c-offset(res))<<shift
		spans = append(spans, span{first, first + CellID(1)<<shift - 1})
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].first != spans[j].first {
			return spans[i].first < spans[j].first
		}
		return spans[i].last > spans[j].last
	})
	// Descendant runs at one resolution never partially overlap: two cells
	// are disjoint or nested, so after sorting, a run ending at or before
	// the furthest end seen so far is entirely contained and skipped. Runs
	// sharing a first identifier (a cell and an ancestor it leads) order
	// longest first so the shorter one hits that skip.
	out := make([]CellID, 0, len(spans))
	var maxEnd CellID
	for _, s := range spans {
		if s.last <= maxEnd {
			continue
		}
		for c := s.first; ; c++ {
			out = append(out, c)
			if c == s.last {
				break
			}
		}
		maxEnd = s.last
	}
	return out, nil
}
