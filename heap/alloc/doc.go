// Package alloc implements a boundary-tag heap allocator over a region
// supplied by a memlib.Provider.
//
// # Overview
//
// The heap is one contiguous span of the provider's region. It is carved
// into blocks; every block carries a boundary tag at both ends holding its
// size in units (16 bytes) and its allocation state. Free blocks are kept on
// a circular doubly-linked list whose links live inside the blocks
// themselves, anchored by a permanently allocated sentinel block at the
// start of the heap.
//
// # Block Layout
//
//	unit 0      header tag (size, negative when allocated)
//	unit 1      prev link (free blocks only)
//	unit 2      next link (free blocks only)
//	unit 3..n-2 payload
//	unit n-1    footer tag (copy of the header)
//
// The payload always starts 3 units after the header, whether the block is
// free or allocated, so allocation never moves it. The smallest block is 4
// units.
//
// # Allocation
//
// Reserve walks the free list from the sentinel and takes the first block
// that is large enough. A block with at least 4 units to spare is split: the
// leading part is handed out and the trailing remainder keeps the original
// block's place in the list. When nothing fits the heap grows by whole
// pages and the new space is merged with a free block ending at the old top.
//
// Release flips the tags to free, merges with free neighbours on either
// side and inserts the result right after the sentinel, so no two adjacent
// blocks are ever both free once a public call returns.
//
// # Usage Example
//
//	p, err := memlib.NewSlice(nil)
//	if err != nil {
//	    return err
//	}
//	a, err := alloc.New(p, nil, nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Teardown()
//
//	addr, err := a.Reserve(100)
//	if err != nil {
//	    return err
//	}
//	payload, _ := a.Payload(addr)
//	copy(payload, "hello")
//	_ = a.Release(addr)
//
// # Addresses
//
// Addr is a byte offset into the provider's region. Offsets stay valid when
// a file-backed provider remaps the region; slices returned by Payload do
// not, so fetch them again after any call that can grow the heap.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize all calls
// on one instance, for example with a single mutex.
//
// # Debugging
//
// Set HEAP_LOG_ALLOC=1 to log growth, splits and merges to stderr, or pass a
// logger in Config. Config.CheckInvariants validates the whole heap after
// every mutating call.
package alloc
