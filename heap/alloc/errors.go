package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/heap/verify"
)

var (
	// ErrOutOfMemory indicates the provider could not extend the heap far
	// enough for the request. The heap remains valid and usable.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidAddress indicates an address that does not name a live block.
	ErrInvalidAddress = errors.New("alloc: invalid address")

	// ErrDoubleFree indicates a release of a block that is already free.
	ErrDoubleFree = fmt.Errorf("%w: block already free", ErrInvalidAddress)

	// ErrNotInitialized indicates a call after Teardown.
	ErrNotInitialized = errors.New("alloc: heap not initialized")

	// ErrNoProvider indicates New was called without a provider.
	ErrNoProvider = errors.New("alloc: nil provider")

	// ErrInvalidSize indicates a negative request size.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrCorrupt is wrapped by every error reporting damaged heap structure.
	ErrCorrupt = verify.ErrCorrupt
)
