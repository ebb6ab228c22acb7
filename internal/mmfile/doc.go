// Package mmfile maps persisted heap files read-only for offline
// inspection.
//
// A file-backed heap is page-rounded on disk, so the bytes after the last
// block are zero. Extent finds where the block chain ends so callers can
// hand exactly the heap region to the verifier.
package mmfile
