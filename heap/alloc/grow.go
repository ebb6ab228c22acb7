package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// grow extends the heap so that a free block of at least minUnits exists
// and returns that block.
//
// The request covers only the deficit left by a free block already ending
// at the heap top, never less than MinGrowPages pages, and is rounded up to
// whole pages. The new space is formatted as one free block and merged the
// same way Release merges, so it joins the top free block when there is one.
func (a *Allocator) grow(minUnits int64) (int64, error) {
	page := a.p.PageSize()
	if page < format.UnitSize {
		page = format.DefaultPageSize
	}
	pageUnits := int64(page / format.UnitSize)

	top := a.topFree()
	want := max(minUnits-top, int64(a.cfg.MinGrowPages)*pageUnits)
	nbytes := format.AlignPage(format.BytesFor(want), page)

	if a.onGrow != nil {
		a.onGrow(nbytes)
	}

	off, err := a.p.Grow(nbytes)
	if err != nil {
		a.log.Debug("grow failed", "need_units", minUnits, "bytes", nbytes, "err", err)
		return -1, fmt.Errorf("%w: grow by %d bytes: %w", ErrOutOfMemory, nbytes, err)
	}
	if int64(off) != a.end {
		return -1, corruptf(int64(off), "provider extension not contiguous with heap top 0x%X", a.end)
	}

	newEnd := int64(a.p.Size())
	units := (newEnd - a.end) / format.UnitSize
	a.end = newEnd
	a.stats.GrowCalls++
	a.stats.GrowBytes += newEnd - int64(off)
	a.markDirty(int64(off), int(newEnd-int64(off)))

	a.log.Debug("grow",
		"need_units", minUnits,
		"top_free_units", top,
		"granted_units", units,
		"heap_bytes", a.end-a.base,
	)

	a.setTags(int64(off), units, false)
	b, _, err := a.coalesce(int64(off), units)
	if err != nil {
		return -1, err
	}
	return b, nil
}

// topFree returns the size of the free block ending at the heap top, or 0.
func (a *Allocator) topFree() int64 {
	if a.end-a.base <= sentinelBytes {
		return 0
	}
	units, allocated := format.ReadTag(a.data(), a.end-format.UnitSize)
	if allocated {
		return 0
	}
	return units
}
