package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// ErrCorrupt is wrapped by every ValidationError.
var ErrCorrupt = errors.New("verify: heap corrupt")

// ValidationError describes a violated heap invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int64
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrCorrupt }

// Block is one block as seen by an address-order walk.
type Block struct {
	Off       int64 // Header offset
	Units     int64 // Size in units
	Allocated bool
}

// Bytes returns the block size in bytes.
func (b Block) Bytes() int { return format.BytesFor(b.Units) }

// End returns the offset just past the block.
func (b Block) End() int64 { return b.Off + int64(b.Bytes()) }

// AllInvariants validates every heap invariant in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte, base int64) error {
	if err := Blocks(data, base); err != nil {
		return err
	}
	return FreeList(data, base)
}

// Walk visits every block from base to the end of data in address order.
// It stops at the first block whose tags cannot be trusted and returns a
// ValidationError, or at the first error returned by fn.
func Walk(data []byte, base int64, fn func(Block) error) error {
	end := int64(len(data))
	off := base
	for off < end {
		b, err := readBlock(data, off)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		off = b.End()
	}
	return nil
}

// readBlock decodes and cross-checks the tags of the block at off.
func readBlock(data []byte, off int64) (Block, error) {
	end := int64(len(data))
	if off < 0 || !format.IsUnitAligned(int(off)) || off+format.UnitSize > end {
		return Block{}, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("header outside region (len=0x%X) or misaligned", end),
			Offset:  off,
		}
	}
	units, alloc := format.ReadTag(data, off)
	if units < format.MinBlockUnits {
		return Block{}, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("block size %d units below minimum %d", units, format.MinBlockUnits),
			Offset:  off,
			Details: map[string]any{"units": units},
		}
	}
	if units > (end-off)/format.UnitSize {
		return Block{}, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("block of %d units extends past region end 0x%X", units, end),
			Offset:  off,
			Details: map[string]any{"units": units},
		}
	}
	fUnits, fAlloc := format.ReadTag(data, format.FooterOf(off, units))
	if fUnits != units || fAlloc != alloc {
		return Block{}, &ValidationError{
			Type:    "Blocks",
			Message: fmt.Sprintf("header/footer mismatch: header=(%d,%v) footer=(%d,%v)", units, alloc, fUnits, fAlloc),
			Offset:  off,
			Details: map[string]any{
				"header_units": units, "header_alloc": alloc,
				"footer_units": fUnits, "footer_alloc": fAlloc,
			},
		}
	}
	return Block{Off: off, Units: units, Allocated: alloc}, nil
}

// Blocks validates the address-order structure of the heap.
func Blocks(data []byte, base int64) error {
	first := true
	var prev Block
	return Walk(data, base, func(b Block) error {
		if first {
			first = false
			if !b.Allocated || b.Units != format.SentinelUnits {
				return &ValidationError{
					Type:    "Sentinel",
					Message: fmt.Sprintf("sentinel must be allocated and %d units, got (%d,%v)", format.SentinelUnits, b.Units, b.Allocated),
					Offset:  b.Off,
				}
			}
		} else if !prev.Allocated && !b.Allocated {
			return &ValidationError{
				Type:    "Coalescing",
				Message: fmt.Sprintf("free block follows free block at 0x%X", prev.Off),
				Offset:  b.Off,
				Details: map[string]any{"prev": prev.Off, "prev_units": prev.Units, "units": b.Units},
			}
		}
		prev = b
		return nil
	})
}

// FreeList validates the circular free list anchored at the sentinel.
func FreeList(data []byte, base int64) error {
	free := make(map[int64]bool)
	if err := Walk(data, base, func(b Block) error {
		if !b.Allocated {
			free[b.Off] = false
		}
		return nil
	}); err != nil {
		return err
	}

	end := int64(len(data))
	validNode := func(off int64) bool {
		return off >= base && off+format.SentinelUnits*format.UnitSize <= end && format.IsUnitAligned(int(off))
	}
	if !validNode(base) {
		return &ValidationError{Type: "FreeList", Message: "sentinel outside region", Offset: base}
	}

	// Every step must land on a distinct free block, so more steps than
	// free blocks means the list does not close.
	limit := len(free) + 1
	cur := base
	for steps := 0; ; steps++ {
		next := format.ReadI64(data, int(format.NextSlot(cur)))
		if !validNode(next) {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("next link 0x%X outside region", next),
				Offset:  cur,
			}
		}
		if back := format.ReadI64(data, int(format.PrevSlot(next))); back != cur {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("prev link of 0x%X is 0x%X, expected 0x%X", next, back, cur),
				Offset:  next,
			}
		}
		if next == base {
			break
		}
		seen, ok := free[next]
		if !ok {
			return &ValidationError{
				Type:    "FreeList",
				Message: "list node is not a free block",
				Offset:  next,
			}
		}
		if seen {
			return &ValidationError{
				Type:    "FreeList",
				Message: "free block linked twice",
				Offset:  next,
			}
		}
		free[next] = true
		if steps >= limit {
			return &ValidationError{
				Type:    "FreeList",
				Message: fmt.Sprintf("list does not return to sentinel within %d steps", limit),
				Offset:  cur,
			}
		}
		cur = next
	}

	for off, seen := range free {
		if !seen {
			return &ValidationError{
				Type:    "FreeList",
				Message: "free block missing from list",
				Offset:  off,
			}
		}
	}
	return nil
}
