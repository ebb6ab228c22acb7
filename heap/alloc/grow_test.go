package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/verify"
)

// gappyProvider leaves a hole before every extension after the first.
type gappyProvider struct {
	*memlib.SliceProvider
	calls int
}

func (g *gappyProvider) Grow(n int) (int, error) {
	g.calls++
	if g.calls > 1 {
		if _, err := g.SliceProvider.Grow(16); err != nil {
			return 0, err
		}
	}
	return g.SliceProvider.Grow(n)
}

func TestGrow_FirstReserveGrowsOnePage(t *testing.T) {
	a, p := newTestAllocator(t, testMaxHeap)
	var requests []int
	a.onGrow = func(n int) { requests = append(requests, n) }

	mustReserve(t, a, 10)
	assert.Equal(t, []int{testPage}, requests)
	assert.Equal(t, sentinelBytes+testPage, p.Size())
	assert.Equal(t, int64(testPage), a.Stats().GrowBytes)
}

// Two pages requested with one page free at the top: exactly one growth,
// covering only the deficit, merged with the existing top block.
func TestGrow_CoversDeficitOnce(t *testing.T) {
	a, p := newTestAllocator(t, testMaxHeap)
	require.NoError(t, a.Release(mustReserve(t, a, 1)))
	require.Equal(t, testPage, a.TotalFreeBytes())

	var requests []int
	a.onGrow = func(n int) { requests = append(requests, n) }
	growsBefore := a.Stats().GrowCalls

	addr := mustReserve(t, a, 2*testPage)

	require.Len(t, requests, 1)
	assert.Equal(t, 2*testPage, requests[0], "deficit of 4 units rounds up to one page beyond the first")
	assert.Equal(t, growsBefore+1, a.Stats().GrowCalls)
	assert.Equal(t, sentinelBytes+3*testPage, p.Size())
	assert.Equal(t, Addr(64+48), addr, "allocation starts in the old top block")
	assert.Equal(t, 1, a.Stats().CoalesceBackward)
}

func TestGrow_NoGrowthWhenFits(t *testing.T) {
	a, _ := newTestAllocator(t, testMaxHeap)
	mustReserve(t, a, 10)
	grows := a.Stats().GrowCalls

	for range 20 {
		mustReserve(t, a, 100)
	}
	assert.Equal(t, grows, a.Stats().GrowCalls)
}

func TestGrow_MinGrowPages(t *testing.T) {
	p, err := memlib.NewSlice(&memlib.Options{MaxHeap: testMaxHeap, PageSize: testPage})
	require.NoError(t, err)
	a, err := New(p, nil, &Config{MinGrowPages: 4, CheckInvariants: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Teardown() })

	mustReserve(t, a, 10)
	assert.Equal(t, sentinelBytes+4*testPage, p.Size())
	assert.Equal(t, 4*testPage-5*16, a.TotalFreeBytes())
}

func TestGrow_OutOfMemoryKeepsHeapUsable(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024)
	x := mustReserve(t, a, 1000)

	_, err := a.Reserve(1 << 20)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.ErrorIs(t, err, memlib.ErrNoMemory)
	assert.Equal(t, 1, a.Stats().OutOfMemory)
	require.NoError(t, a.Check())

	y := mustReserve(t, a, 1000)
	require.NoError(t, a.Release(x))
	require.NoError(t, a.Release(y))
}

func TestGrow_FillsProviderToLimit(t *testing.T) {
	a, p := newTestAllocator(t, 64*1024)

	var live []Addr
	for {
		addr, err := a.Reserve(1000)
		if err != nil {
			require.ErrorIs(t, err, ErrOutOfMemory)
			break
		}
		live = append(live, addr)
	}
	require.NotEmpty(t, live)
	assert.LessOrEqual(t, p.Size(), p.MaxHeap())

	for _, addr := range live {
		require.NoError(t, a.Release(addr))
	}
	fl := freeList(t, a)
	require.Len(t, fl, 1, "everything merges back into one block")
	assert.Equal(t, p.Size()-sentinelBytes, a.TotalFreeBytes())
}

func TestGrow_HugeRequest(t *testing.T) {
	a, _ := newTestAllocator(t, testMaxHeap)
	_, err := a.Reserve(1 << 62)
	require.ErrorIs(t, err, ErrOutOfMemory)
	mustReserve(t, a, 10)
}

func TestGrow_NonContiguousProvider(t *testing.T) {
	sp, err := memlib.NewSlice(&memlib.Options{MaxHeap: testMaxHeap, PageSize: testPage})
	require.NoError(t, err)
	a, err := New(&gappyProvider{SliceProvider: sp}, nil, nil)
	require.NoError(t, err)

	_, err = a.Reserve(10)
	require.ErrorIs(t, err, ErrCorrupt)
	var verr *verify.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "not contiguous")
}
