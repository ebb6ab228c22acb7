// Package verify provides validation functions for boundary-tag heap regions.
//
// # Overview
//
// The checks decode the raw region with internal/format, independently of
// the allocator's own bookkeeping, so a bug in the allocator cannot hide
// itself. They are used by the allocator's CheckInvariants mode, by the
// trace driver, and throughout the tests.
//
// Validation categories:
//   - Blocks: address-order walk. Every block has matching header and footer
//     tags, a size of at least four units, fits in the region, and the blocks
//     tile the heap exactly. The first block is the sentinel (allocated, four
//     units). No two address-adjacent blocks are both free.
//   - FreeList: starting at the sentinel, following next links returns to the
//     sentinel after visiting every free block exactly once; prev links agree.
//
// # Quick Start
//
//	data := provider.Bytes()
//	if err := verify.AllInvariants(data, 0); err != nil {
//	    fmt.Printf("heap corrupt: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure. It unwraps
// to ErrCorrupt:
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Printf("%s at 0x%X\n", verr.Type, verr.Offset)
//	}
//
// # Shadow
//
// Shadow records live payload ranges in a B-tree and rejects a range that
// overlaps one already recorded. It is the reference the trace driver and
// the property tests compare the allocator against.
package verify
