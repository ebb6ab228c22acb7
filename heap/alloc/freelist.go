package alloc

import "github.com/joshuapare/heapkit/internal/format"

// The free list is circular and doubly linked through the prev/next slots
// of each free block. The sentinel at a.base is always on it, so an empty
// list is the sentinel linked to itself and no operation needs a nil check.

func (a *Allocator) next(b int64) int64 {
	return format.ReadI64(a.data(), int(format.NextSlot(b)))
}

func (a *Allocator) prev(b int64) int64 {
	return format.ReadI64(a.data(), int(format.PrevSlot(b)))
}

func (a *Allocator) setNext(b, n int64) {
	off := format.NextSlot(b)
	format.PutI64(a.data(), int(off), n)
	a.markDirty(off, format.TagSize)
}

func (a *Allocator) setPrev(b, p int64) {
	off := format.PrevSlot(b)
	format.PutI64(a.data(), int(off), p)
	a.markDirty(off, format.TagSize)
}

// insertAfterSentinel links b in as the first node after the sentinel.
func (a *Allocator) insertAfterSentinel(b int64) {
	n := a.next(a.base)
	a.setPrev(b, a.base)
	a.setNext(b, n)
	a.setPrev(n, b)
	a.setNext(a.base, b)
}

// unlink removes b from the list. b's own links are left stale.
func (a *Allocator) unlink(b int64) {
	p, n := a.prev(b), a.next(b)
	a.setNext(p, n)
	a.setPrev(n, p)
}

// replace puts r into b's list position. b's links must still be intact.
func (a *Allocator) replace(b, r int64) {
	p, n := a.prev(b), a.next(b)
	a.setPrev(r, p)
	a.setNext(r, n)
	a.setNext(p, r)
	a.setPrev(n, r)
}

// walkFree calls fn for every free block in list order, sentinel excluded,
// until fn returns false. It stops with a ValidationError when a link leaves the heap, lands on an
// allocated block, or the list does not return to the sentinel.
func (a *Allocator) walkFree(fn func(b, units int64) bool) error {
	limit := (a.end - a.base) / minBlockBytes
	cur := a.next(a.base)
	for steps := int64(0); cur != a.base; steps++ {
		if steps >= limit {
			return corruptf(cur, "free list does not return to sentinel within %d steps", limit)
		}
		if !a.isNode(cur) {
			return corruptf(cur, "free list link outside heap [0x%X, 0x%X)", a.base, a.end)
		}
		units, allocated, err := a.tag(cur)
		if err != nil {
			return err
		}
		if allocated {
			return corruptf(cur, "allocated block on free list")
		}
		if !fn(cur, units) {
			return nil
		}
		cur = a.next(cur)
	}
	return nil
}
