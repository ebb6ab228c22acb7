package memlib

// SliceProvider serves the region out of a single Go byte slice allocated
// at Init. It is the in-process analogue of the classic memlib model: one
// big buffer and a break pointer.
type SliceProvider struct {
	opts Options
	data []byte
	br   breakPtr
}

// NewSlice creates a slice-backed provider. Pass nil for DefaultOptions.
func NewSlice(opts *Options) (*SliceProvider, error) {
	o, err := normalize(opts)
	if err != nil {
		return nil, err
	}
	return &SliceProvider{opts: o}, nil
}

// Init allocates the backing buffer.
func (p *SliceProvider) Init() error {
	if p.data != nil {
		return nil
	}
	p.data = make([]byte, p.opts.MaxHeap)
	p.br = breakPtr{limit: p.opts.MaxHeap}
	return nil
}

// Reset moves the break back to zero. Memory contents are left as they are.
func (p *SliceProvider) Reset() error {
	if p.data == nil {
		return ErrNotInitialized
	}
	p.br.brk = 0
	return nil
}

// Teardown drops the backing buffer.
func (p *SliceProvider) Teardown() error {
	p.data = nil
	p.br = breakPtr{}
	return nil
}

// Grow extends the region by n bytes.
func (p *SliceProvider) Grow(n int) (int, error) {
	if p.data == nil {
		return 0, ErrNotInitialized
	}
	return p.br.extend(n)
}

func (p *SliceProvider) PageSize() int { return p.opts.PageSize }

func (p *SliceProvider) Bytes() []byte {
	if p.data == nil {
		return nil
	}
	return p.data[:p.br.brk]
}

func (p *SliceProvider) Size() int { return p.br.brk }

// MaxHeap returns the configured region limit.
func (p *SliceProvider) MaxHeap() int { return p.opts.MaxHeap }
