package memlib

import (
	"fmt"
	"math/bits"
	"os"

	"github.com/joshuapare/heapkit/internal/format"
)

// Provider supplies a contiguous region that grows at its top.
//
// Implementations:
//   - SliceProvider: Go-heap backed, portable
//   - MmapProvider: anonymous mapping reserved up front
//   - FileProvider: file-backed mapping, remapped on growth
type Provider interface {
	// Init prepares the provider for use. Calling Init on an initialized
	// provider is a no-op.
	Init() error

	// Reset empties the region without releasing the provider itself.
	// Offsets handed out before Reset become invalid.
	Reset() error

	// Teardown releases every resource the provider holds. Init may be
	// called again afterwards to start a new lifecycle.
	Teardown() error

	// Grow extends the region by n bytes (rounded up to format.UnitSize)
	// and returns the offset where the extension starts, which always
	// equals the region size before the call. Returns an error wrapping
	// ErrNoMemory when the region cannot grow.
	Grow(n int) (int, error)

	// PageSize returns the granularity heaps should grow by.
	PageSize() int

	// Bytes returns the current region, [0, Size()). The slice is only
	// valid until the next Grow, Reset or Teardown.
	Bytes() []byte

	// Size returns the current region size in bytes.
	Size() int
}

const (
	// DefaultMaxHeap is the default region limit (20 MiB).
	DefaultMaxHeap = 20 * (1 << 20)
)

// Options configures a provider.
type Options struct {
	// MaxHeap is the hard limit for the region size in bytes.
	// Grow fails with ErrNoMemory past this limit.
	MaxHeap int

	// PageSize is the growth granularity reported to the heap.
	// Must be a power of two and a multiple of format.UnitSize.
	// Zero selects the OS page size.
	PageSize int
}

// DefaultOptions returns the options used when nil is passed to a constructor.
func DefaultOptions() Options {
	return Options{
		MaxHeap:  DefaultMaxHeap,
		PageSize: os.Getpagesize(),
	}
}

// normalize fills zero fields with defaults and validates the result.
func normalize(opts *Options) (Options, error) {
	o := DefaultOptions()
	if opts != nil {
		if opts.MaxHeap != 0 {
			o.MaxHeap = opts.MaxHeap
		}
		if opts.PageSize != 0 {
			o.PageSize = opts.PageSize
		}
	}
	if o.MaxHeap <= 0 {
		return o, fmt.Errorf("%w: max heap %d", ErrBadArgument, o.MaxHeap)
	}
	if o.PageSize < format.UnitSize || bits.OnesCount(uint(o.PageSize)) != 1 {
		return o, fmt.Errorf("%w: page size %d must be a power of two >= %d",
			ErrBadArgument, o.PageSize, format.UnitSize)
	}
	return o, nil
}

// breakPtr is the sbrk bookkeeping shared by every provider.
type breakPtr struct {
	brk   int
	limit int
}

// extend advances the break by n bytes rounded to a unit and returns the
// old break.
func (b *breakPtr) extend(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative grow %d", ErrBadArgument, n)
	}
	n = format.AlignUnit(n)
	if n > b.limit-b.brk {
		return 0, fmt.Errorf("%w: grow %d bytes at break %d exceeds limit %d",
			ErrNoMemory, n, b.brk, b.limit)
	}
	old := b.brk
	b.brk += n
	return old, nil
}

var (
	_ Provider = (*SliceProvider)(nil)
	_ Provider = (*MmapProvider)(nil)
	_ Provider = (*FileProvider)(nil)
)
