package format

// A boundary tag is the size of a block in units, stored as a signed 64-bit
// integer in the first TagSize bytes of the header unit and of the footer
// unit. A negative value marks the block allocated, a positive value marks
// it free. Zero never describes a block.

// UnitsFor returns the number of units a block needs to carry nbytes of
// payload: nbytes rounded up to whole units plus the fixed overhead.
func UnitsFor(nbytes int) int64 {
	return int64((nbytes+UnitSize-1)/UnitSize) + OverheadUnits
}

// BytesFor returns the number of bytes spanned by units. No overhead is
// subtracted; callers converting a block's capacity to usable bytes must
// pass size-OverheadUnits themselves.
func BytesFor(units int64) int {
	return int(units) * UnitSize
}

// PayloadOf returns the payload offset of the block whose header is at off.
func PayloadOf(off int64) int64 {
	return off + PayloadUnits*UnitSize
}

// BlockOf returns the header offset of the block owning the payload at p.
func BlockOf(p int64) int64 {
	return p - PayloadUnits*UnitSize
}

// EncodeTag packs a block size and allocation state into a tag value.
func EncodeTag(units int64, allocated bool) int64 {
	if allocated {
		return -units
	}
	return units
}

// DecodeTag unpacks a tag value into size and allocation state.
func DecodeTag(v int64) (units int64, allocated bool) {
	if v < 0 {
		return -v, true
	}
	return v, false
}

// PutTag writes a boundary tag at off.
func PutTag(b []byte, off int64, units int64, allocated bool) {
	PutI64(b, int(off), EncodeTag(units, allocated))
}

// ReadTag reads the boundary tag at off.
func ReadTag(b []byte, off int64) (units int64, allocated bool) {
	return DecodeTag(ReadI64(b, int(off)))
}

// FooterOf returns the footer offset of a block of the given size at off.
func FooterOf(off, units int64) int64 {
	return off + (units-1)*UnitSize
}

// PrevSlot returns the offset of the free-list previous link of the block at off.
func PrevSlot(off int64) int64 {
	return off + PrevSlotUnits*UnitSize
}

// NextSlot returns the offset of the free-list next link of the block at off.
func NextSlot(off int64) int64 {
	return off + NextSlotUnits*UnitSize
}
