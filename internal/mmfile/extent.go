package mmfile

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Extent returns the length of the block chain at the start of data. The
// walk stops at the first zero header, which marks page-rounding slack.
// Only header sizes are read; Extent does not validate footers or links.
func Extent(data []byte) (int, error) {
	off := int64(0)
	for off+format.TagSize <= int64(len(data)) {
		units, _ := format.ReadTag(data, off)
		if units == 0 {
			break
		}
		if units < format.MinBlockUnits {
			return 0, fmt.Errorf("mmfile: block at 0x%X has %d units", off, units)
		}
		next := off + int64(format.BytesFor(units))
		if next > int64(len(data)) || next <= off {
			return 0, fmt.Errorf("mmfile: block at 0x%X runs past end of file", off)
		}
		off = next
	}
	return int(off), nil
}
