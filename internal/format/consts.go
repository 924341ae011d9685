// Package format houses the low-level block header codec for the heap
// arena. The goal is to keep the encoding focused, allocation-free, and
// independent from the public API so the allocation engine can treat
// headers as plain byte ranges threaded through the arena.
package format

const (
	// AlignUnit is the allocation alignment unit. Payload sizes are
	// rounded up to multiples of it, and payload offsets are multiples
	// of it.
	AlignUnit = 16

	// AlignMask is the bitmask used for 16-byte alignment (AlignUnit - 1).
	AlignMask = AlignUnit - 1

	// Block header field offsets. All fields are little-endian.
	BlockSizeOffset  = 0x00 // uint64, usable payload bytes (excludes the header)
	BlockNextOffset  = 0x08 // uint64, header offset of the successor, NilOffset if none
	BlockPrevOffset  = 0x10 // uint64, header offset of the predecessor, NilOffset if none
	BlockStateOffset = 0x18 // uint32, BlockInUse or BlockFree

	// BlockHeaderSize is the structural size of a block header in bytes.
	BlockHeaderSize = 0x1C

	// PaddedHeaderSize is the header size rounded up to the alignment
	// unit. It is the fixed distance between a header and its payload,
	// so a payload handle converts to its header with one subtraction.
	PaddedHeaderSize = 0x20

	// MinPayload is the smallest payload a block may carry. Split
	// remnants below it are absorbed into the allocation instead of
	// becoming unusable fragments.
	MinPayload = AlignUnit

	// SplitThreshold is the minimum surplus beyond an aligned request
	// that justifies carving the tail into its own free block: room for
	// a padded header plus at least one alignment unit of payload.
	SplitThreshold = PaddedHeaderSize + AlignUnit

	// BootstrapChunk is the minimum size of the first arena grant.
	// The first allocation requests at least this much so that early
	// small allocations share a single extension call.
	BootstrapChunk = 64 * 1024

	// GrowSlack is the extra tail allowance added to every grant after
	// the first. Grants record only the aligned request as usable, so
	// the slack is never claimed by any block.
	GrowSlack = AlignUnit
)

// NilOffset is the encoded value of an absent next/prev link. Offset
// zero cannot stand in for "none" because the directory head lives
// there.
const NilOffset = ^uint64(0)

// Block state words.
const (
	BlockInUse uint32 = 0
	BlockFree  uint32 = 1
)
