package heap

import (
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/format"
)

// Free returns the allocation at p to the directory, eagerly merging it
// with any adjacent free neighbor. Release never fails: the zero
// handle, handles that do not denote a block of this heap, and repeated
// frees of the same block are all no-ops.
func (h *Heap) Free(p Ptr) {
	h.stats.FreeCalls++
	if off, ok := h.blockAt(p); ok && !format.BlockIsFree(h.mem, off) {
		h.release(off)
	}
	h.record(trace.Event{Op: trace.OpFree, OldPtr: uint64(p)})
}

// blockAt converts a payload handle to its header offset. A handle is
// accepted only when the bytes behind it form a directory entry whose
// neighbors link back to it, so handles this heap never issued, foreign
// and interior pointers included, are rejected in constant time instead
// of sending the coalescer through garbage links.
func (h *Heap) blockAt(p Ptr) (uint64, bool) {
	extent := uint64(len(h.mem))
	pay := uint64(p)
	if pay < format.PaddedHeaderSize || pay%format.AlignUnit != 0 || pay > extent {
		return 0, false
	}
	off := format.HeaderOffset(pay)

	size := format.BlockSize(h.mem, off)
	if size < format.MinPayload || size%format.AlignUnit != 0 || size > extent-pay {
		return 0, false
	}
	if st := format.BlockState(h.mem, off); st != format.BlockInUse && st != format.BlockFree {
		return 0, false
	}
	next := format.BlockNext(h.mem, off)
	if next != format.NilOffset {
		if next%format.AlignUnit != 0 || next < pay+size ||
			next+format.BlockHeaderSize > extent || format.BlockPrev(h.mem, next) != off {
			return 0, false
		}
	}
	prev := format.BlockPrev(h.mem, off)
	if off == 0 {
		if prev != format.NilOffset {
			return 0, false
		}
	} else if prev >= off || prev%format.AlignUnit != 0 || format.BlockNext(h.mem, prev) != off {
		return 0, false
	}
	return off, true
}

// release marks the block at off free and coalesces: forward while the
// successor run is free, then one step backward. The forward loop has
// collapsed everything ahead by the time the backward merge runs, so a
// single predecessor check suffices to restore the no-adjacent-free
// invariant.
func (h *Heap) release(off uint64) uint64 {
	format.SetBlockFree(h.mem, off, true)
	h.stats.BytesFreed += int64(format.BlockSize(h.mem, off))

	for {
		next := format.BlockNext(h.mem, off)
		if next == format.NilOffset || !format.BlockIsFree(h.mem, next) {
			break
		}
		h.absorbNext(off)
		h.stats.CoalesceForward++
	}

	prev := format.BlockPrev(h.mem, off)
	if prev != format.NilOffset && format.BlockIsFree(h.mem, prev) {
		h.absorbNext(prev)
		h.stats.CoalesceBackward++
		off = prev
	}
	return off
}

// absorbNext merges the successor of the block at off into it: the
// successor's padded header and payload are added to the block's usable
// size and the successor is unlinked. Sizes merge by the list
// arithmetic, so slack left between arena grants is never claimed.
func (h *Heap) absorbNext(off uint64) {
	next := format.BlockNext(h.mem, off)
	merged := format.BlockSize(h.mem, off) + format.PaddedHeaderSize + format.BlockSize(h.mem, next)
	format.SetBlockSize(h.mem, off, merged)

	after := format.BlockNext(h.mem, next)
	format.SetBlockNext(h.mem, off, after)
	if after != format.NilOffset {
		format.SetBlockPrev(h.mem, after, off)
	}
}
