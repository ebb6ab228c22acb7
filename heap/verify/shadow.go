package verify

import (
	"fmt"

	"github.com/google/btree"
)

// span is a live payload range [Off, Off+Len).
type span struct {
	Off uint64
	Len uint64
}

func (s span) end() uint64 { return s.Off + s.Len }

// Shadow is an independent record of live payload ranges, ordered by
// address. Zero-length ranges are legal and only collide with a range
// starting at the same address or strictly containing it.
type Shadow struct {
	tree      *btree.BTreeG[span]
	liveBytes uint64
	peakBytes uint64
}

// shadowDegree is the B-tree node degree; small trees dominate in tests.
const shadowDegree = 16

// NewShadow creates an empty shadow.
func NewShadow() *Shadow {
	return &Shadow{
		tree: btree.NewG(shadowDegree, func(a, b span) bool { return a.Off < b.Off }),
	}
}

// Insert records the range [off, off+n). It fails with a ValidationError of
// Type "Overlap" when the range intersects a recorded one.
func (s *Shadow) Insert(off, n uint64) error {
	cand := span{Off: off, Len: n}

	var below span
	var haveBelow bool
	s.tree.DescendLessOrEqual(cand, func(item span) bool {
		below, haveBelow = item, true
		return false
	})
	if haveBelow && (below.Off == off || below.end() > off) {
		return overlapError(cand, below)
	}

	var above span
	var haveAbove bool
	s.tree.AscendGreaterOrEqual(cand, func(item span) bool {
		above, haveAbove = item, true
		return false
	})
	if haveAbove && above.Off < cand.end() {
		return overlapError(cand, above)
	}

	s.tree.ReplaceOrInsert(cand)
	s.liveBytes += n
	s.peakBytes = max(s.peakBytes, s.liveBytes)
	return nil
}

// Remove forgets the range starting at off and returns its length. It
// fails with Type "UnknownAddress" when no range starts at off.
func (s *Shadow) Remove(off uint64) (uint64, error) {
	item, ok := s.tree.Delete(span{Off: off})
	if !ok {
		return 0, &ValidationError{
			Type:    "UnknownAddress",
			Message: "no live range starts here",
			Offset:  int64(off),
		}
	}
	s.liveBytes -= item.Len
	return item.Len, nil
}

// Lookup returns the length of the range starting at off.
func (s *Shadow) Lookup(off uint64) (uint64, bool) {
	item, ok := s.tree.Get(span{Off: off})
	return item.Len, ok
}

// Len returns the number of live ranges.
func (s *Shadow) Len() int { return s.tree.Len() }

// LiveBytes returns the sum of all live range lengths.
func (s *Shadow) LiveBytes() uint64 { return s.liveBytes }

// PeakBytes returns the high-water mark of LiveBytes.
func (s *Shadow) PeakBytes() uint64 { return s.peakBytes }

// Reset forgets every range. The peak is kept.
func (s *Shadow) Reset() {
	s.tree.Clear(false)
	s.liveBytes = 0
}

func overlapError(cand, existing span) error {
	return &ValidationError{
		Type: "Overlap",
		Message: fmt.Sprintf("range [0x%X,0x%X) overlaps live range [0x%X,0x%X)",
			cand.Off, cand.end(), existing.Off, existing.end()),
		Offset:  int64(cand.Off),
		Details: map[string]any{"existing": existing.Off, "existing_len": existing.Len},
	}
}
