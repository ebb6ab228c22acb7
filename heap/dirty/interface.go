package dirty

// DirtyTracker is the minimal interface for reporting modified byte ranges.
//
// This interface is intended for components that only need to notify about
// dirty regions but don't manage flushing themselves (the allocator).
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the region, length is the number of bytes.
	Add(off, length int)
}

// Target is a file-backed mapping a Tracker can flush.
// memlib.FileProvider implements it.
type Target interface {
	// Mapping returns the whole current mapping.
	Mapping() []byte
	// FD returns the backing file descriptor, or -1.
	FD() int
}
