package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

const (
	// sentinelBytes is the byte size of the sentinel block.
	sentinelBytes = format.SentinelUnits * format.UnitSize

	// minBlockBytes is the byte size of the smallest block.
	minBlockBytes = format.MinBlockUnits * format.UnitSize
)

// data returns the current region. Only valid until the next grow.
func (a *Allocator) data() []byte {
	return a.p.Bytes()
}

func (a *Allocator) markDirty(off int64, n int) {
	if a.dt != nil {
		a.dt.Add(int(off), n)
	}
}

// setTags writes the header and footer of block b.
func (a *Allocator) setTags(b, units int64, allocated bool) {
	d := a.data()
	f := format.FooterOf(b, units)
	format.PutTag(d, b, units, allocated)
	format.PutTag(d, f, units, allocated)
	a.markDirty(b, format.TagSize)
	a.markDirty(f, format.TagSize)
}

// tag reads the header of block b and cross-checks it against the footer.
func (a *Allocator) tag(b int64) (units int64, allocated bool, err error) {
	if !a.inHeap(b, format.UnitSize) {
		return 0, false, corruptf(b, "block header outside heap [0x%X, 0x%X)", a.base, a.end)
	}
	d := a.data()
	units, allocated = format.ReadTag(d, b)
	if units < format.MinBlockUnits {
		return 0, false, corruptf(b, "block size %d units below minimum %d", units, format.MinBlockUnits)
	}
	if _, err := buf.CheckSpan(int(a.end), int(b), int(units), format.UnitSize); err != nil {
		return 0, false, corruptf(b, "block of %d units: %v", units, err)
	}
	fUnits, fAllocated := format.ReadTag(d, format.FooterOf(b, units))
	if fUnits != units || fAllocated != allocated {
		return 0, false, corruptf(b, "header/footer mismatch: header=(%d,%v) footer=(%d,%v)",
			units, allocated, fUnits, fAllocated)
	}
	return units, allocated, nil
}

// inHeap reports whether [off, off+n) is a unit-aligned span inside the heap.
func (a *Allocator) inHeap(off int64, n int64) bool {
	return off >= a.base && off <= a.end-n && format.IsUnitAligned(int(off))
}

// isNode reports whether off can be the header of a free-list node.
func (a *Allocator) isNode(off int64) bool {
	return a.inHeap(off, minBlockBytes)
}

// blockOf resolves a payload address to its block. Addresses that cannot
// name a block (outside the heap, inside the sentinel, misaligned, or with
// disagreeing tags) fail with ErrInvalidAddress.
func (a *Allocator) blockOf(addr Addr) (b, units int64, allocated bool, err error) {
	if uint64(addr) > math.MaxInt64 {
		return 0, 0, false, fmt.Errorf("%w: %s outside heap", ErrInvalidAddress, addr)
	}
	b = format.BlockOf(int64(addr))
	if b < a.base+sentinelBytes || !a.inHeap(b, minBlockBytes) {
		return 0, 0, false, fmt.Errorf("%w: %s outside heap [0x%X, 0x%X)",
			ErrInvalidAddress, addr, a.base+sentinelBytes, a.end)
	}
	units, allocated, err = a.tag(b)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
	}
	return b, units, allocated, nil
}

// capacityOf returns the payload bytes of a block of the given size.
func capacityOf(units int64) int {
	return format.BytesFor(units - format.OverheadUnits)
}

func corruptf(off int64, msg string, args ...any) error {
	return &verify.ValidationError{
		Type:    "Blocks",
		Message: fmt.Sprintf(msg, args...),
		Offset:  off,
	}
}
