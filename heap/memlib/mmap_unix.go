//go:build linux || darwin

package memlib

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// MmapProvider reserves Options.MaxHeap bytes of private anonymous memory
// at Init. Growth only moves the break; the kernel commits pages on first
// touch, so a large MaxHeap costs address space, not memory.
type MmapProvider struct {
	opts Options
	mem  []byte
	br   breakPtr
	// high is the highest break reached since the last Reset, used to bound
	// the madvise range.
	high int
}

// NewMmap creates an mmap-backed provider. Pass nil for DefaultOptions.
func NewMmap(opts *Options) (*MmapProvider, error) {
	o, err := normalize(opts)
	if err != nil {
		return nil, err
	}
	return &MmapProvider{opts: o}, nil
}

// Init maps the reservation.
func (p *MmapProvider) Init() error {
	if p.mem != nil {
		return nil
	}
	mem, err := unix.Mmap(-1, 0, p.opts.MaxHeap,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return fmt.Errorf("memlib: mmap %d bytes: %w", p.opts.MaxHeap, err)
	}
	p.mem = mem
	p.br = breakPtr{limit: p.opts.MaxHeap}
	p.high = 0
	return nil
}

// Reset returns every touched page to the OS and moves the break to zero.
// Private anonymous pages read back as zero after MADV_DONTNEED.
func (p *MmapProvider) Reset() error {
	if p.mem == nil {
		return ErrNotInitialized
	}
	if p.high > 0 {
		n := min(format.AlignPage(p.high, unix.Getpagesize()), len(p.mem))
		if err := unix.Madvise(p.mem[:n], unix.MADV_DONTNEED); err != nil {
			return fmt.Errorf("memlib: madvise: %w", err)
		}
	}
	p.br.brk = 0
	p.high = 0
	return nil
}

// Teardown unmaps the reservation.
func (p *MmapProvider) Teardown() error {
	if p.mem == nil {
		return nil
	}
	err := unix.Munmap(p.mem)
	p.mem = nil
	p.br = breakPtr{}
	p.high = 0
	if err != nil {
		return fmt.Errorf("memlib: munmap: %w", err)
	}
	return nil
}

// Grow extends the region by n bytes.
func (p *MmapProvider) Grow(n int) (int, error) {
	if p.mem == nil {
		return 0, ErrNotInitialized
	}
	off, err := p.br.extend(n)
	if err != nil {
		return 0, err
	}
	p.high = max(p.high, p.br.brk)
	return off, nil
}

func (p *MmapProvider) PageSize() int { return p.opts.PageSize }

func (p *MmapProvider) Bytes() []byte {
	if p.mem == nil {
		return nil
	}
	return p.mem[:p.br.brk]
}

func (p *MmapProvider) Size() int { return p.br.brk }
