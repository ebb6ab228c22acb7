package format

// AlignUnit returns n aligned up to the next unit boundary.
//
// Example:
//
//	AlignUnit(1)  = 16
//	AlignUnit(16) = 16
//	AlignUnit(17) = 32
func AlignUnit(n int) int {
	return (n + UnitMask) & ^UnitMask
}

// AlignPage returns n aligned up to the next multiple of pageSize.
// pageSize must be a power of two.
//
// Example:
//
//	AlignPage(1, 4096)    = 4096
//	AlignPage(4096, 4096) = 4096
//	AlignPage(4097, 4096) = 8192
func AlignPage(n, pageSize int) int {
	mask := pageSize - 1
	return (n + mask) & ^mask
}

// IsUnitAligned reports whether off sits on a unit boundary.
func IsUnitAligned(off int) bool {
	return off&UnitMask == 0
}
