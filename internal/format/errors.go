package format

import "errors"

var (
	// ErrTruncated indicates the region lacked the bytes required for a record.
	ErrTruncated = errors.New("format: truncated region")
	// ErrBadTag indicates a boundary tag that cannot describe a block (zero or undersized).
	ErrBadTag = errors.New("format: bad boundary tag")
)
