// Package format holds the on-region encoding of heap blocks: the unit
// size, the boundary tag layout, and the little-endian helpers used to read
// and write them. It is deliberately free of allocator policy so that the
// allocator and the verifier decode the region the same way.
package format

const (
	// UnitSize is the width of one control record in bytes. Block sizes are
	// expressed in units. 16 bytes is the maximal scalar alignment on the
	// platforms the heap targets, so every payload is 16-byte aligned.
	UnitSize = 16

	// UnitShift is log2(UnitSize).
	UnitShift = 4

	// UnitMask is the bitmask used for aligning to unit boundaries (UnitSize - 1).
	UnitMask = UnitSize - 1

	// MinBlockUnits is the smallest legal block: header, prev slot, next slot, footer.
	MinBlockUnits = 4

	// OverheadUnits is the number of units in every block that never carry payload.
	OverheadUnits = 4

	// PayloadUnits is the distance, in units, from a block header to its payload.
	// Header + prev slot + next slot, identical for free and allocated blocks.
	PayloadUnits = 3

	// PrevSlotUnits and NextSlotUnits locate the free-list links inside a block.
	PrevSlotUnits = 1
	NextSlotUnits = 2

	// TagSize is the number of bytes of a unit actually used by a boundary tag
	// or a link slot. The remaining bytes of the unit are padding.
	TagSize = 8

	// SentinelUnits is the fixed size of the sentinel block.
	SentinelUnits = MinBlockUnits

	// DefaultPageSize is used when a provider does not report a page size.
	DefaultPageSize = 4096
)
