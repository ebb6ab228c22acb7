package memlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// providerContract exercises the behaviour every Provider must share.
func providerContract(t *testing.T, p Provider, maxHeap int) {
	t.Helper()

	_, err := p.Grow(16)
	require.ErrorIs(t, err, ErrNotInitialized, "Grow before Init")

	require.NoError(t, p.Init())
	require.NoError(t, p.Init(), "Init is a no-op on an initialized provider")
	require.Equal(t, 0, p.Size())

	off, err := p.Grow(10)
	require.NoError(t, err)
	assert.Equal(t, 0, off)
	assert.Equal(t, 16, p.Size(), "grow rounds to a unit")

	off, err = p.Grow(100)
	require.NoError(t, err)
	assert.Equal(t, 16, off, "extensions are contiguous")
	assert.Equal(t, 128, p.Size())
	require.Len(t, p.Bytes(), 128)

	// Region is writable end to end.
	b := p.Bytes()
	b[0] = 0xAA
	b[127] = 0x55
	assert.Equal(t, byte(0xAA), p.Bytes()[0])
	assert.Equal(t, byte(0x55), p.Bytes()[127])

	_, err = p.Grow(maxHeap)
	require.ErrorIs(t, err, ErrNoMemory)
	assert.Equal(t, 128, p.Size(), "failed grow leaves the break untouched")

	_, err = p.Grow(-1)
	require.ErrorIs(t, err, ErrBadArgument)

	require.NoError(t, p.Reset())
	assert.Equal(t, 0, p.Size())
	off, err = p.Grow(32)
	require.NoError(t, err)
	assert.Equal(t, 0, off, "reset restarts at offset zero")

	// Fill to exactly the limit.
	off, err = p.Grow(maxHeap - 32)
	require.NoError(t, err)
	assert.Equal(t, 32, off)
	_, err = p.Grow(1)
	require.ErrorIs(t, err, ErrNoMemory)

	require.NoError(t, p.Teardown())
	require.NoError(t, p.Teardown(), "double teardown is harmless")
	assert.Nil(t, p.Bytes())
	_, err = p.Grow(16)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, p.Reset(), ErrNotInitialized)

	// A new lifecycle starts clean.
	require.NoError(t, p.Init())
	assert.Equal(t, 0, p.Size())
	require.NoError(t, p.Teardown())
}

func TestSliceProviderContract(t *testing.T) {
	const maxHeap = 64 << 10
	p, err := NewSlice(&Options{MaxHeap: maxHeap, PageSize: 4096})
	require.NoError(t, err)
	providerContract(t, p, maxHeap)
}

func TestMmapProviderContract(t *testing.T) {
	const maxHeap = 256 << 10
	p, err := NewMmap(&Options{MaxHeap: maxHeap, PageSize: 4096})
	require.NoError(t, err)
	providerContract(t, p, maxHeap)
}

func TestNormalizeOptions(t *testing.T) {
	o, err := normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxHeap, o.MaxHeap)
	assert.Positive(t, o.PageSize)

	o, err = normalize(&Options{PageSize: 512})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxHeap, o.MaxHeap, "zero fields take defaults")
	assert.Equal(t, 512, o.PageSize)

	_, err = normalize(&Options{PageSize: 1000})
	require.ErrorIs(t, err, ErrBadArgument, "page size must be a power of two")

	_, err = normalize(&Options{PageSize: 8})
	require.ErrorIs(t, err, ErrBadArgument, "page size must hold at least one unit")

	_, err = normalize(&Options{MaxHeap: -1})
	require.ErrorIs(t, err, ErrBadArgument)
}

func TestSliceProviderPageSize(t *testing.T) {
	p, err := NewSlice(&Options{MaxHeap: 1 << 16, PageSize: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, p.PageSize())
	assert.Equal(t, 1<<16, p.MaxHeap())
}
