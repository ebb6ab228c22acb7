package alloc

import "fmt"

// Resize changes the payload size of the block at addr and returns the
// block's address, which may differ from addr.
//
//   - addr == Nil behaves as Reserve(n).
//   - A block whose capacity already covers n > 0 is returned unchanged.
//     Blocks never shrink.
//   - Otherwise a new block is reserved, min(capacity, n) bytes are copied,
//     and the old block is released. n == 0 takes this path and copies
//     nothing.
//
// When the new block cannot be reserved the old one is left untouched and
// the error wraps ErrOutOfMemory.
func (a *Allocator) Resize(addr Addr, n int) (Addr, error) {
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if err := a.ready(); err != nil {
		return Nil, err
	}
	a.stats.ResizeCalls++
	if addr == Nil {
		return a.Reserve(n)
	}

	b, units, allocated, err := a.blockOf(addr)
	if err != nil {
		return Nil, err
	}
	if !allocated {
		return Nil, fmt.Errorf("%w: %s is free", ErrInvalidAddress, addr)
	}

	capacity := capacityOf(units)
	if n > 0 && capacity >= n {
		a.stats.ResizeInPlace++
		return addr, nil
	}

	a.stats.ReserveCalls++
	naddr, err := a.reserve(n)
	if err != nil {
		return Nil, err
	}

	// reserve may have remapped the region.
	count := min(capacity, n)
	src, dst := int(addr), int(naddr)
	d := a.data()
	copy(d[dst:dst+count], d[src:src+count])
	a.markDirty(int64(dst), count)

	if err := a.releaseBlock(b, units); err != nil {
		return Nil, err
	}
	return naddr, a.checkAfter("resize")
}
