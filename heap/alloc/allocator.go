package alloc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/internal/format"
)

// maxRequest bounds a single request so unit arithmetic cannot overflow.
const maxRequest = 1 << 48

type heapState uint8

const (
	stateFresh     heapState = iota // never initialized; first Reserve initializes
	stateReady                      // sentinel in place
	stateTornDown                   // provider released; only Init revives it
)

// Allocator is a first-fit boundary-tag allocator with a circular free list.
type Allocator struct {
	p   memlib.Provider
	dt  DirtyTracker // Nil disables dirty tracking
	cfg Config
	log *slog.Logger

	// Heap bounds: [base, end). The sentinel header is at base.
	base  int64
	end   int64
	state heapState

	stats Stats

	// Test hook: called with the byte count of every growth request (nil in production)
	onGrow func(nbytes int)
}

// New creates an allocator over p. The heap is initialized lazily by the
// first Reserve or Resize, or explicitly by Init.
//
// Parameters:
//   - p: the memory provider supplying the region
//   - dt: dirty tracker notified of every byte range the allocator writes (can be nil)
//   - cfg: tuning knobs (use nil for DefaultConfig)
func New(p memlib.Provider, dt DirtyTracker, cfg *Config) (*Allocator, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := *cfg
	if c.MinGrowPages < 1 {
		c.MinGrowPages = 1
	}
	return &Allocator{
		p:   p,
		dt:  dt,
		cfg: c,
		log: newLogger(&c),
	}, nil
}

// Init prepares the provider and lays down the sentinel. Calling Init on an
// initialized heap is a no-op.
func (a *Allocator) Init() error {
	if a.state == stateReady {
		return nil
	}
	if err := a.p.Init(); err != nil {
		return fmt.Errorf("alloc: init provider: %w", err)
	}
	if err := a.format(); err != nil {
		return err
	}
	a.state = stateReady
	return nil
}

// Reset discards every block and starts over with an empty heap. Addresses
// handed out before Reset become invalid.
func (a *Allocator) Reset() error {
	switch a.state {
	case stateTornDown:
		return ErrNotInitialized
	case stateFresh:
		return a.Init()
	}
	if err := a.p.Reset(); err != nil {
		return fmt.Errorf("alloc: reset provider: %w", err)
	}
	return a.format()
}

// Teardown releases the provider. Every call other than Init and
// Release(Nil) fails with ErrNotInitialized afterwards.
func (a *Allocator) Teardown() error {
	if a.state == stateTornDown {
		return nil
	}
	a.state = stateTornDown
	a.base, a.end = 0, 0
	if err := a.p.Teardown(); err != nil {
		return fmt.Errorf("alloc: teardown provider: %w", err)
	}
	return nil
}

// format writes the sentinel at the start of an empty region.
func (a *Allocator) format() error {
	off, err := a.p.Grow(sentinelBytes)
	if err != nil {
		a.state = stateFresh
		return fmt.Errorf("%w: sentinel: %w", ErrOutOfMemory, err)
	}
	a.base = int64(off)
	a.end = int64(a.p.Size())
	a.stats = Stats{}

	a.setTags(a.base, format.SentinelUnits, true)
	a.setPrev(a.base, a.base)
	a.setNext(a.base, a.base)

	a.log.Debug("heap initialized", "base", a.base, "end", a.end)
	return nil
}

// ready makes sure the heap can serve a call, initializing a fresh one.
func (a *Allocator) ready() error {
	switch a.state {
	case stateReady:
		return nil
	case stateFresh:
		return a.Init()
	default:
		return ErrNotInitialized
	}
}

// Reserve allocates a block with at least n bytes of payload and returns its
// address. The payload is not zeroed. Fails with ErrOutOfMemory when the
// provider cannot grow the heap enough.
func (a *Allocator) Reserve(n int) (Addr, error) {
	if n < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if err := a.ready(); err != nil {
		return Nil, err
	}
	a.stats.ReserveCalls++
	addr, err := a.reserve(n)
	if err != nil {
		return Nil, err
	}
	return addr, a.checkAfter("reserve")
}

func (a *Allocator) reserve(n int) (Addr, error) {
	if n > maxRequest {
		a.stats.OutOfMemory++
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, n)
	}
	units := format.UnitsFor(n)

	b, size, err := a.search(units)
	if err != nil {
		return Nil, err
	}
	if b < 0 {
		if _, err := a.grow(units); err != nil {
			if errors.Is(err, ErrOutOfMemory) {
				a.stats.OutOfMemory++
			}
			a.log.Debug("reserve failed", "bytes", n, "units", units, "err", err)
			return Nil, err
		}
		if b, size, err = a.search(units); err != nil {
			return Nil, err
		}
		if b < 0 {
			return Nil, corruptf(a.end, "no block of %d units after growth", units)
		}
	}

	a.place(b, size, units)
	return Addr(format.PayloadOf(b)), nil
}

// search returns the first free block of at least units, starting from the
// sentinel every time, or -1 when none fits.
func (a *Allocator) search(units int64) (int64, int64, error) {
	found, size := int64(-1), int64(0)
	err := a.walkFree(func(b, u int64) bool {
		if u >= units {
			found, size = b, u
			return false
		}
		return true
	})
	if err != nil {
		return -1, 0, err
	}
	return found, size, nil
}

// place allocates the leading units of free block b. A remainder of at least
// the minimum block size is split off and keeps b's list position; a smaller
// one is absorbed into the allocation.
func (a *Allocator) place(b, size, units int64) {
	if rest := size - units; rest >= format.MinBlockUnits {
		r := b + units*format.UnitSize
		a.setTags(r, rest, false)
		a.replace(b, r)
		a.stats.SplitCount++
		a.log.Debug("split", "block", b, "units", size, "taken", units, "remainder", rest)
	} else {
		a.unlink(b)
		units = size
	}
	a.setTags(b, units, true)
	a.stats.AllocatedBlocks++
	a.stats.AllocatedBytes += int64(format.BytesFor(units))
}
