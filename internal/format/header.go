package format

// Block header accessors.
//
// A block header occupies BlockHeaderSize bytes at its block's offset;
// the payload begins PaddedHeaderSize bytes later. Headers are threaded
// into a doubly linked list in ascending address order.
//
// Header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    8     Usable payload size in bytes. Excludes the header.
//	0x08    8     Header offset of the next block, NilOffset at the tail.
//	0x10    8     Header offset of the previous block, NilOffset at the head.
//	0x18    4     State word: BlockInUse or BlockFree.
//
// Accessors assume the caller has validated off against len(b); the
// allocation engine only ever derives offsets from the list itself.

// BlockSize returns the usable payload size of the block at off.
func BlockSize(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off)+BlockSizeOffset)
}

// SetBlockSize records the usable payload size of the block at off.
func SetBlockSize(b []byte, off uint64, size uint64) {
	PutU64(b, int(off)+BlockSizeOffset, size)
}

// BlockNext returns the header offset of the successor of the block at
// off, or NilOffset when it is the directory tail.
func BlockNext(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off)+BlockNextOffset)
}

// SetBlockNext links the block at off to the successor at next.
func SetBlockNext(b []byte, off uint64, next uint64) {
	PutU64(b, int(off)+BlockNextOffset, next)
}

// BlockPrev returns the header offset of the predecessor of the block
// at off, or NilOffset when it is the directory head.
func BlockPrev(b []byte, off uint64) uint64 {
	return ReadU64(b, int(off)+BlockPrevOffset)
}

// SetBlockPrev links the block at off to the predecessor at prev.
func SetBlockPrev(b []byte, off uint64, prev uint64) {
	PutU64(b, int(off)+BlockPrevOffset, prev)
}

// BlockState returns the raw state word of the block at off.
func BlockState(b []byte, off uint64) uint32 {
	return ReadU32(b, int(off)+BlockStateOffset)
}

// BlockIsFree reports whether the block at off is free.
func BlockIsFree(b []byte, off uint64) bool {
	return BlockState(b, off) == BlockFree
}

// SetBlockFree records the block state at off.
func SetBlockFree(b []byte, off uint64, free bool) {
	state := BlockInUse
	if free {
		state = BlockFree
	}
	PutU32(b, int(off)+BlockStateOffset, state)
}

// WriteBlock initializes a complete header in one call.
func WriteBlock(b []byte, off uint64, size, next, prev uint64, free bool) {
	SetBlockSize(b, off, size)
	SetBlockNext(b, off, next)
	SetBlockPrev(b, off, prev)
	SetBlockFree(b, off, free)
}

// PayloadOffset returns the payload offset of the block headered at off.
func PayloadOffset(off uint64) uint64 {
	return off + PaddedHeaderSize
}

// HeaderOffset returns the header offset of the block whose payload
// starts at payload. Inverse of PayloadOffset.
func HeaderOffset(payload uint64) uint64 {
	return payload - PaddedHeaderSize
}
