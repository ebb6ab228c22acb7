// Package memlib supplies the raw, growable memory region a heap is built on.
//
// # Overview
//
// A Provider manages one contiguous region that only grows at its top, in
// the manner of brk/sbrk: every Grow call returns the offset of a fresh
// extension that starts exactly where the previous one ended. Callers
// address the region by offset through Bytes(), never by retained slices,
// because some providers move the region when it grows.
//
// # Implementations
//
// SliceProvider: a Go byte slice of Options.MaxHeap bytes with a break pointer.
// Portable and the default for tests.
//
// MmapProvider: reserves Options.MaxHeap bytes of anonymous memory once
// (linux/darwin). Untouched pages cost nothing; Reset hands touched pages
// back to the OS with madvise. Other platforms fall back to a slice.
//
// FileProvider: a region backed by a file (linux/darwin). Growth truncates
// the file to the new page-rounded length and remaps it, so the base
// address may change between calls. Pair it with dirty.Tracker to flush
// modified pages.
//
// # Lifecycle
//
//	p, err := memlib.NewSlice(nil)
//	if err != nil {
//	    return err
//	}
//	if err := p.Init(); err != nil {
//	    return err
//	}
//	off, err := p.Grow(4096)
//	...
//	_ = p.Reset()    // empty again, provider still usable
//	_ = p.Teardown() // resources released
//
// # Thread Safety
//
// Providers are not thread-safe. They are owned by exactly one heap.
package memlib
