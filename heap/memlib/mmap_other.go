//go:build !linux && !darwin

package memlib

// MmapProvider falls back to a slice-backed region on platforms without
// an anonymous mmap implementation wired up.
type MmapProvider struct {
	SliceProvider
}

// NewMmap creates the fallback provider. Pass nil for DefaultOptions.
func NewMmap(opts *Options) (*MmapProvider, error) {
	sp, err := NewSlice(opts)
	if err != nil {
		return nil, err
	}
	return &MmapProvider{SliceProvider: *sp}, nil
}
