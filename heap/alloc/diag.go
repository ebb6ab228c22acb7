package alloc

import (
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
)

// TotalFreeBytes returns the combined size of all free blocks in bytes,
// tags included, sentinel excluded. A damaged free list stops the sum at
// the first bad node; Check reports the damage.
func (a *Allocator) TotalFreeBytes() int {
	if a.state != stateReady {
		return 0
	}
	total := 0
	if err := a.walkFree(func(_, units int64) bool {
		total += format.BytesFor(units)
		return true
	}); err != nil {
		a.log.Error("free list walk failed", "err", err)
	}
	return total
}

// DumpFreeList writes the free list to w, one block per line, in list order.
// It never modifies the heap.
func (a *Allocator) DumpFreeList(w io.Writer, label string) error {
	if _, err := fmt.Fprintf(w, "\n--- Free list after %q:\n", label); err != nil {
		return err
	}
	if a.state != stateReady {
		_, err := fmt.Fprint(w, "    List does not exist\n\n")
		return err
	}
	if a.next(a.base) == a.base {
		_, err := fmt.Fprint(w, "    List is empty\n\n")
		return err
	}

	prefix := "    "
	var werr error
	walkErr := a.walkFree(func(b, units int64) bool {
		_, werr = fmt.Fprintf(w, "%soff: 0x%08X size: %d\n", prefix, b, units)
		prefix = " -> "
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	if walkErr != nil {
		fmt.Fprintf(w, "    corrupt: %v\n", walkErr)
		return walkErr
	}
	_, err := fmt.Fprint(w, "--- end\n\n")
	return err
}

// Visualize dumps the free list to stderr.
func (a *Allocator) Visualize(label string) {
	_ = a.DumpFreeList(os.Stderr, label)
}

// UsableSize returns the payload capacity of the allocated block at addr,
// which is at least the size it was reserved with.
func (a *Allocator) UsableSize(addr Addr) (int, error) {
	_, units, err := a.liveBlock(addr)
	if err != nil {
		return 0, err
	}
	return capacityOf(units), nil
}

// Payload returns the payload of the allocated block at addr. The slice
// aliases the region and is only valid until the next call that can grow
// the heap.
func (a *Allocator) Payload(addr Addr) ([]byte, error) {
	_, units, err := a.liveBlock(addr)
	if err != nil {
		return nil, err
	}
	p := int(addr)
	end := p + capacityOf(units)
	return a.data()[p:end:end], nil
}

// liveBlock resolves addr to an allocated block.
func (a *Allocator) liveBlock(addr Addr) (int64, int64, error) {
	if a.state != stateReady {
		return 0, 0, ErrNotInitialized
	}
	if addr == Nil {
		return 0, 0, fmt.Errorf("%w: nil", ErrInvalidAddress)
	}
	b, units, allocated, err := a.blockOf(addr)
	if err != nil {
		return 0, 0, err
	}
	if !allocated {
		return 0, 0, fmt.Errorf("%w: %s is free", ErrInvalidAddress, addr)
	}
	return b, units, nil
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.HeapBytes = a.end - a.base
	return s
}

// Check validates every heap invariant: tags agree at both ends of every
// block, the sentinel is intact, no two adjacent blocks are free, and the
// free list is circular and holds exactly the free blocks.
func (a *Allocator) Check() error {
	if a.state != stateReady {
		return ErrNotInitialized
	}
	d := a.data()
	if int64(len(d)) != a.end {
		return corruptf(a.end, "heap end disagrees with region size 0x%X", len(d))
	}
	return verify.AllInvariants(d, a.base)
}

// checkAfter runs Check when CheckInvariants is set.
func (a *Allocator) checkAfter(op string) error {
	if !a.cfg.CheckInvariants {
		return nil
	}
	if err := a.Check(); err != nil {
		a.log.Error("invariant violated", "op", op, "err", err)
		return fmt.Errorf("alloc: after %s: %w", op, err)
	}
	return nil
}
