package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Verify walks the block directory and checks its structural
// invariants:
//
//   - headers and payloads lie inside the arena extent
//   - sizes are aligned and at least MinPayload
//   - prev links mirror the next chain
//   - state words are valid
//   - no two adjacent blocks are both free
//   - each block ends at or before its successor's header
//
// It returns nil on success or an error wrapping ErrCorrupt naming the
// first violation. A heap that has not allocated yet verifies trivially.
func (h *Heap) Verify() error {
	if !h.booted {
		return nil
	}
	extent := uint64(len(h.mem))
	prev := format.NilOffset
	prevFree := false

	for off := uint64(0); ; {
		if off%format.AlignUnit != 0 || off+format.BlockHeaderSize > extent {
			return fmt.Errorf("%w: header at %#x outside arena extent %#x", ErrCorrupt, off, extent)
		}
		size := format.BlockSize(h.mem, off)
		if size < format.MinPayload || size%format.AlignUnit != 0 {
			return fmt.Errorf("%w: block at %#x has bad size %d", ErrCorrupt, off, size)
		}
		end := format.PayloadOffset(off) + size
		if end > extent {
			return fmt.Errorf("%w: block at %#x spans past arena extent %#x", ErrCorrupt, off, extent)
		}
		if format.BlockPrev(h.mem, off) != prev {
			return fmt.Errorf("%w: block at %#x prev link %#x, want %#x",
				ErrCorrupt, off, format.BlockPrev(h.mem, off), prev)
		}
		if st := format.BlockState(h.mem, off); st != format.BlockInUse && st != format.BlockFree {
			return fmt.Errorf("%w: block at %#x has state word %d", ErrCorrupt, off, st)
		}
		free := format.BlockIsFree(h.mem, off)
		if free && prevFree {
			return fmt.Errorf("%w: adjacent free blocks at %#x and %#x", ErrCorrupt, prev, off)
		}

		next := format.BlockNext(h.mem, off)
		if next == format.NilOffset {
			return nil
		}
		// Grant slack may leave a gap before the successor, but a block
		// must never extend into it.
		if next < end {
			return fmt.Errorf("%w: block at %#x overlaps successor at %#x", ErrCorrupt, off, next)
		}
		prev, prevFree = off, free
		off = next
	}
}
