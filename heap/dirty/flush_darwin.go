//go:build darwin

package dirty

import (
	"golang.org/x/sys/unix"
)

// flushRanges flushes the whole mapping.
//
// On macOS, msync() wants the address of the original mapping, so sub-slices
// are not used. The kernel only writes pages that are actually dirty.
func (t *Tracker) flushRanges(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync syncs the file, using F_FULLFSYNC when fullfsync is set.
func fdatasync(fd int, fullfsync bool) error {
	if fullfsync {
		_, err := unix.FcntlInt(uintptr(fd), unix.F_FULLFSYNC, 0)
		return err
	}
	return unix.Fsync(fd)
}
