package alloc

import "fmt"

// Addr is the payload address of an allocated block: a byte offset into the
// provider's region.
type Addr uint64

// Nil is the null address. Offset 0 is never a payload because every payload
// sits at least 3 units past the sentinel header.
const Nil Addr = 0

func (a Addr) String() string {
	if a == Nil {
		return "nil"
	}
	return fmt.Sprintf("0x%X", uint64(a))
}

// Stats holds allocator counters, for tests and instrumentation.
type Stats struct {
	ReserveCalls     int   // Reserve calls, including those made by Resize
	ReleaseCalls     int   // Release calls with a non-nil address
	ResizeCalls      int   // Resize calls
	ResizeInPlace    int   // Resize calls answered with the same address
	GrowCalls        int   // Provider growth requests
	GrowBytes        int64 // Bytes obtained from the provider by growth
	SplitCount       int   // Blocks split during Reserve
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
	OutOfMemory      int   // Reserve calls that failed for lack of memory
	HeapBytes        int64 // Current heap size including the sentinel
	AllocatedBytes   int64 // Bytes in allocated blocks, sentinel excluded, tags included
	AllocatedBlocks  int   // Live allocated blocks, sentinel excluded
}
