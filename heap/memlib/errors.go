package memlib

import "errors"

var (
	// ErrNoMemory indicates the region cannot be extended any further.
	ErrNoMemory = errors.New("memlib: out of memory")

	// ErrNotInitialized indicates an operation on a provider before Init or after Teardown.
	ErrNotInitialized = errors.New("memlib: provider not initialized")

	// ErrBadArgument indicates an invalid option or grow request.
	ErrBadArgument = errors.New("memlib: bad argument")
)
