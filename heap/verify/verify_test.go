package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

// layout describes one block after the sentinel: positive = free, negative = allocated.
type layout []int64

// buildRegion lays out a sentinel followed by the given blocks and links
// every free block into the list in address order.
func buildRegion(t testing.TB, blocks layout) ([]byte, []int64) {
	t.Helper()

	total := int64(format.SentinelUnits)
	for _, b := range blocks {
		if b < 0 {
			total -= b
		} else {
			total += b
		}
	}
	data := make([]byte, total*format.UnitSize)

	putBlock(data, 0, format.SentinelUnits, true)
	offs := make([]int64, 0, len(blocks))
	free := []int64{0}
	off := int64(format.SentinelUnits * format.UnitSize)
	for _, b := range blocks {
		units, alloc := format.DecodeTag(b)
		putBlock(data, off, units, alloc)
		offs = append(offs, off)
		if !alloc {
			free = append(free, off)
		}
		off += units * format.UnitSize
	}
	for i, f := range free {
		next := free[(i+1)%len(free)]
		prev := free[(i+len(free)-1)%len(free)]
		format.PutI64(data, int(format.NextSlot(f)), next)
		format.PutI64(data, int(format.PrevSlot(f)), prev)
	}
	return data, offs
}

func putBlock(data []byte, off, units int64, alloc bool) {
	format.PutTag(data, off, units, alloc)
	format.PutTag(data, format.FooterOf(off, units), units, alloc)
}

func requireViolation(t *testing.T, err error, typ string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCorrupt)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, typ, verr.Type, "message: %s", verr.Message)
	return verr
}

func TestAllInvariants_Valid(t *testing.T) {
	data, _ := buildRegion(t, layout{-5, 8, -4, 16, -6})
	require.NoError(t, AllInvariants(data, 0))
}

func TestAllInvariants_SentinelOnly(t *testing.T) {
	data, _ := buildRegion(t, nil)
	require.NoError(t, AllInvariants(data, 0))
}

func TestBlocks_FooterMismatch(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8})
	format.PutTag(data, format.FooterOf(offs[1], 8), 7, false)

	verr := requireViolation(t, Blocks(data, 0), "Blocks")
	assert.Equal(t, offs[1], verr.Offset)
	assert.Contains(t, verr.Message, "header/footer mismatch")
}

func TestBlocks_AllocationStateMismatch(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8})
	format.PutTag(data, format.FooterOf(offs[0], 5), 5, false)

	requireViolation(t, Blocks(data, 0), "Blocks")
}

func TestBlocks_UndersizedBlock(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8})
	format.PutTag(data, offs[1], 2, false)

	verr := requireViolation(t, Blocks(data, 0), "Blocks")
	assert.Contains(t, verr.Message, "below minimum")
}

func TestBlocks_PastRegionEnd(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8})
	format.PutTag(data, offs[1], 800, false)

	verr := requireViolation(t, Blocks(data, 0), "Blocks")
	assert.Contains(t, verr.Message, "past region end")
}

func TestBlocks_AdjacentFree(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8, 6})

	verr := requireViolation(t, Blocks(data, 0), "Coalescing")
	assert.Equal(t, offs[2], verr.Offset)
}

func TestBlocks_BadSentinel(t *testing.T) {
	data, _ := buildRegion(t, layout{-5})
	putBlock(data, 0, format.SentinelUnits, false)

	requireViolation(t, Blocks(data, 0), "Sentinel")
}

func TestFreeList_MissingBlock(t *testing.T) {
	data, offs := buildRegion(t, layout{8, -4, 16})
	// Sentinel -> offs[2] directly, skipping offs[0].
	format.PutI64(data, int(format.NextSlot(0)), offs[2])
	format.PutI64(data, int(format.PrevSlot(offs[2])), 0)
	format.PutI64(data, int(format.NextSlot(offs[2])), 0)
	format.PutI64(data, int(format.PrevSlot(0)), offs[2])

	verr := requireViolation(t, FreeList(data, 0), "FreeList")
	assert.Equal(t, offs[0], verr.Offset)
	assert.Contains(t, verr.Message, "missing")
}

func TestFreeList_BrokenPrevLink(t *testing.T) {
	data, offs := buildRegion(t, layout{8, -4, 16})
	format.PutI64(data, int(format.PrevSlot(offs[2])), 0)

	verr := requireViolation(t, FreeList(data, 0), "FreeList")
	assert.Contains(t, verr.Message, "prev link")
}

func TestFreeList_AllocatedNodeLinked(t *testing.T) {
	data, offs := buildRegion(t, layout{8, -4})
	// Splice the allocated block in after the free one.
	format.PutI64(data, int(format.NextSlot(offs[0])), offs[1])
	format.PutI64(data, int(format.PrevSlot(offs[1])), offs[0])
	format.PutI64(data, int(format.NextSlot(offs[1])), 0)
	format.PutI64(data, int(format.PrevSlot(0)), offs[1])

	verr := requireViolation(t, FreeList(data, 0), "FreeList")
	assert.Equal(t, offs[1], verr.Offset)
}

func TestFreeList_Cycle(t *testing.T) {
	data, offs := buildRegion(t, layout{8, -4, 16})
	// offs[2] points back at offs[0]: the list never reaches the sentinel.
	format.PutI64(data, int(format.NextSlot(offs[2])), offs[0])
	format.PutI64(data, int(format.PrevSlot(offs[0])), offs[2])

	requireViolation(t, FreeList(data, 0), "FreeList")
}

func TestFreeList_LinkOutsideRegion(t *testing.T) {
	data, offs := buildRegion(t, layout{8})
	format.PutI64(data, int(format.NextSlot(offs[0])), 1<<40)

	verr := requireViolation(t, FreeList(data, 0), "FreeList")
	assert.Contains(t, verr.Message, "outside region")
}

func TestWalkVisitsEveryBlock(t *testing.T) {
	data, offs := buildRegion(t, layout{-5, 8, -4})

	var got []Block
	require.NoError(t, Walk(data, 0, func(b Block) error {
		got = append(got, b)
		return nil
	}))
	require.Len(t, got, 4)
	assert.Equal(t, Block{Off: 0, Units: 4, Allocated: true}, got[0])
	assert.Equal(t, Block{Off: offs[1], Units: 8, Allocated: false}, got[2])
	assert.Equal(t, int64(len(data)), got[3].End())
	assert.Equal(t, 64, got[0].Bytes())
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	data, _ := buildRegion(t, layout{-5, 8})
	stop := errors.New("stop")
	calls := 0
	err := Walk(data, 0, func(Block) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestValidationErrorFormatting(t *testing.T) {
	err := &ValidationError{Type: "FreeList", Message: "boom", Offset: 0x40}
	assert.Equal(t, "FreeList at offset 0x40: boom", err.Error())

	err = &ValidationError{Type: "Overlap", Message: "boom", Offset: -1}
	assert.Equal(t, "Overlap: boom", err.Error())
}
