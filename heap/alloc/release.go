package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Release returns the block at addr to the heap. Releasing Nil is a no-op.
//
// Addresses that do not name a block fail with ErrInvalidAddress, releasing
// a block twice fails with ErrDoubleFree. The heap is not modified in either
// case.
func (a *Allocator) Release(addr Addr) error {
	if addr == Nil {
		return nil
	}
	if err := a.ready(); err != nil {
		return err
	}
	b, units, allocated, err := a.blockOf(addr)
	if err != nil {
		return err
	}
	if !allocated {
		a.log.Warn("double free", "addr", addr.String(), "units", units)
		return fmt.Errorf("%w: %s", ErrDoubleFree, addr)
	}
	a.stats.ReleaseCalls++
	if err := a.releaseBlock(b, units); err != nil {
		return err
	}
	return a.checkAfter("release")
}

// releaseBlock frees the allocated block b and merges it with its neighbours.
func (a *Allocator) releaseBlock(b, units int64) error {
	a.stats.AllocatedBlocks--
	a.stats.AllocatedBytes -= int64(format.BytesFor(units))
	a.setTags(b, units, false)
	_, _, err := a.coalesce(b, units)
	return err
}

// coalesce merges the free block b (tagged free, not linked) with free
// neighbours on both sides, writes the merged tags and links the result
// after the sentinel. The sentinel is allocated, so it never merges.
func (a *Allocator) coalesce(b, units int64) (int64, int64, error) {
	if b-format.UnitSize >= a.base {
		pu, pAllocated := format.ReadTag(a.data(), b-format.UnitSize)
		if !pAllocated {
			pb := b - pu*format.UnitSize
			if pu < format.MinBlockUnits || pb < a.base+sentinelBytes {
				return -1, 0, corruptf(b-format.UnitSize, "footer of %d units runs before heap start", pu)
			}
			if hu, hAllocated, err := a.tag(pb); err != nil {
				return -1, 0, err
			} else if hu != pu || hAllocated {
				return -1, 0, corruptf(pb, "preceding block header (%d,%v) disagrees with footer %d", hu, hAllocated, pu)
			}
			a.unlink(pb)
			a.stats.CoalesceBackward++
			a.log.Debug("coalesce backward", "block", b, "units", units, "prev", pb, "prev_units", pu)
			b = pb
			units += pu
		}
	}

	if nb := b + units*format.UnitSize; nb < a.end {
		nu, nAllocated, err := a.tag(nb)
		if err != nil {
			return -1, 0, err
		}
		if !nAllocated {
			a.unlink(nb)
			a.stats.CoalesceForward++
			a.log.Debug("coalesce forward", "block", b, "units", units, "next", nb, "next_units", nu)
			units += nu
		}
	}

	a.setTags(b, units, false)
	a.insertAfterSentinel(b)
	return b, units, nil
}
