package format

// Alignment utilities for the heap block format.
// Every payload size, header offset, and arena grant is aligned to the
// 16-byte allocation unit, so payload addresses stay 16-byte aligned
// whenever the arena base is.

// Align16 returns n aligned up to the next 16-byte boundary.
// Used for payload sizes and the padded block header.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignMask) & ^AlignMask
}

// Align16U64 returns n aligned up to the next 16-byte boundary.
// uint64 version for offset arithmetic in allocator code, where request
// sizes near the top of the int range must not wrap.
func Align16U64(n uint64) uint64 {
	return (n + AlignMask) & ^uint64(AlignMask)
}
