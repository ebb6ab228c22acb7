//go:build linux || darwin

package memlib

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/format"
)

// FileProvider keeps the region in a file mapped MAP_SHARED. The mapping
// always covers the file, which is kept page-rounded; the break may sit
// below the end of the mapping.
type FileProvider struct {
	opts   Options
	path   string
	f      *os.File
	data   []byte // whole mapping
	br     breakPtr
	osPage int
}

// NewFile creates a provider that will back its region with the file at
// path. The file is created (or truncated) by Init. Pass nil for
// DefaultOptions.
func NewFile(path string, opts *Options) (*FileProvider, error) {
	o, err := normalize(opts)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadArgument)
	}
	return &FileProvider{opts: o, path: path, osPage: unix.Getpagesize()}, nil
}

// Init creates or truncates the backing file.
func (p *FileProvider) Init() error {
	if p.f != nil {
		return nil
	}
	f, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	p.f = f
	p.data = nil
	p.br = breakPtr{limit: p.opts.MaxHeap}
	return nil
}

// Reset unmaps the region and truncates the file to zero length.
func (p *FileProvider) Reset() error {
	if p.f == nil {
		return ErrNotInitialized
	}
	if err := p.unmap(); err != nil {
		return err
	}
	if err := p.f.Truncate(0); err != nil {
		return fmt.Errorf("memlib: truncate: %w", err)
	}
	p.br.brk = 0
	return nil
}

// Teardown unmaps the region and closes the file. The file is kept on disk.
func (p *FileProvider) Teardown() error {
	if p.f == nil {
		return nil
	}
	unmapErr := p.unmap()
	closeErr := p.f.Close()
	p.f = nil
	p.br = breakPtr{}
	return errors.Join(unmapErr, closeErr)
}

// Grow extends the region by n bytes, extending and remapping the file
// when the break passes the end of the current mapping.
func (p *FileProvider) Grow(n int) (int, error) {
	if p.f == nil {
		return 0, ErrNotInitialized
	}
	saved := p.br
	off, err := p.br.extend(n)
	if err != nil {
		return 0, err
	}
	if p.br.brk > len(p.data) {
		if err := p.remap(format.AlignPage(p.br.brk, p.osPage)); err != nil {
			p.br = saved
			return 0, fmt.Errorf("%w: %w", ErrNoMemory, err)
		}
	}
	return off, nil
}

// remap grows the file to size bytes and maps all of it. On failure the
// previous mapping is restored.
func (p *FileProvider) remap(size int) error {
	old := len(p.data)
	if err := p.unmap(); err != nil {
		return err
	}
	if err := p.f.Truncate(int64(size)); err != nil {
		_ = p.mapFile(old)
		return fmt.Errorf("memlib: truncate file: %w", err)
	}
	if err := p.mapFile(size); err != nil {
		_ = p.f.Truncate(int64(old))
		_ = p.mapFile(old)
		return err
	}
	return nil
}

func (p *FileProvider) mapFile(size int) error {
	if size == 0 {
		return nil
	}
	data, err := unix.Mmap(int(p.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("memlib: mmap file: %w", err)
	}
	p.data = data
	return nil
}

func (p *FileProvider) unmap() error {
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	if err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("memlib: munmap: %w", err)
	}
	return nil
}

func (p *FileProvider) PageSize() int { return p.opts.PageSize }

func (p *FileProvider) Bytes() []byte {
	if p.data == nil {
		return nil
	}
	return p.data[:p.br.brk]
}

func (p *FileProvider) Size() int { return p.br.brk }

// Mapping returns the whole current mapping, including the page-rounding
// slack past the break. Used for flushing.
func (p *FileProvider) Mapping() []byte { return p.data }

// FD returns the backing file descriptor, or -1 when not initialized.
func (p *FileProvider) FD() int {
	if p == nil || p.f == nil {
		return -1
	}
	return int(p.f.Fd())
}

// Path returns the backing file path.
func (p *FileProvider) Path() string { return p.path }
