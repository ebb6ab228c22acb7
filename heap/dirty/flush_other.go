//go:build !linux && !freebsd && !darwin

package dirty

// No file-backed providers exist on this platform, so there is nothing to flush.
func (t *Tracker) flushRanges(_ []byte) error { return nil }

func fdatasync(_ int, _ bool) error { return nil }
