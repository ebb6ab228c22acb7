// Package dirty tracks byte ranges of a file-backed heap that the allocator
// has modified, and flushes them to disk.
//
// # Overview
//
// Every boundary-tag write, free-list link write and fresh extension is
// reported to a DirtyTracker. The Tracker implementation stores the raw
// ranges cheaply and only at flush time page-aligns, sorts and merges them,
// then msyncs each merged range and optionally fdatasyncs the file.
//
// # Usage
//
//	fp, _ := memlib.NewFile("heap.bin", nil)
//	dt := dirty.NewTracker(fp)
//	a, _ := alloc.New(fp, dt, nil)
//	...
//	if err := dt.Flush(ctx, dirty.FlushAuto); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Not thread-safe. The tracker belongs to the heap that feeds it.
package dirty
