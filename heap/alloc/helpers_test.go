package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/memlib"
)

const (
	testPage    = 4096
	testMaxHeap = 1 << 20
)

// freeBlock is one free-list node as seen by tests.
type freeBlock struct {
	off   int64
	units int64
}

// newTestAllocator returns an allocator over a slice provider with 4 KiB
// pages and invariant checking after every call.
func newTestAllocator(t testing.TB, maxHeap int) (*Allocator, *memlib.SliceProvider) {
	t.Helper()
	p, err := memlib.NewSlice(&memlib.Options{MaxHeap: maxHeap, PageSize: testPage})
	require.NoError(t, err)
	a, err := New(p, nil, &Config{CheckInvariants: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Teardown() })
	return a, p
}

// freeList returns the free list in list order, sentinel excluded.
func freeList(t testing.TB, a *Allocator) []freeBlock {
	t.Helper()
	var out []freeBlock
	require.NoError(t, a.walkFree(func(b, units int64) bool {
		out = append(out, freeBlock{off: b, units: units})
		return true
	}))
	return out
}

func dump(t testing.TB, a *Allocator, label string) string {
	t.Helper()
	var sb bytes.Buffer
	require.NoError(t, a.DumpFreeList(&sb, label))
	return sb.String()
}

func mustReserve(t testing.TB, a *Allocator, n int) Addr {
	t.Helper()
	addr, err := a.Reserve(n)
	require.NoError(t, err, "Reserve(%d)", n)
	require.NotEqual(t, Nil, addr)
	return addr
}

// fill writes an address-derived pattern over the payload at addr.
func fill(t testing.TB, a *Allocator, addr Addr, n int) {
	t.Helper()
	p, err := a.Payload(addr)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(p), n)
	for i := range n {
		p[i] = pattern(addr, i)
	}
}

func pattern(addr Addr, i int) byte {
	return byte(uint64(addr)>>4) ^ byte(i*7+1)
}

// recordingTracker stores every dirty range it is given.
type recordingTracker struct {
	ranges [][2]int
}

func (r *recordingTracker) Add(off, length int) {
	r.ranges = append(r.ranges, [2]int{off, length})
}
