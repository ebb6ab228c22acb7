//go:build !linux && !darwin

package memlib

import (
	"errors"
	"fmt"
)

// FileProvider is unavailable on this platform; every operation fails
// with errors.ErrUnsupported.
type FileProvider struct {
	path string
}

// NewFile returns a provider whose Init always fails on this platform.
func NewFile(path string, opts *Options) (*FileProvider, error) {
	if _, err := normalize(opts); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadArgument)
	}
	return &FileProvider{path: path}, nil
}

func (p *FileProvider) Init() error             { return errors.ErrUnsupported }
func (p *FileProvider) Reset() error            { return errors.ErrUnsupported }
func (p *FileProvider) Teardown() error         { return nil }
func (p *FileProvider) Grow(n int) (int, error) { return 0, errors.ErrUnsupported }
func (p *FileProvider) PageSize() int           { return 0 }
func (p *FileProvider) Bytes() []byte           { return nil }
func (p *FileProvider) Size() int               { return 0 }
func (p *FileProvider) Mapping() []byte         { return nil }
func (p *FileProvider) FD() int                 { return -1 }
func (p *FileProvider) Path() string            { return p.path }
