package heap

import (
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/format"
)

// Realloc resizes the allocation at p to size bytes.
//
// The zero handle allocates like Malloc; a zero size releases like Free
// and returns the zero handle. Growth prefers absorbing a free
// successor over moving; when moving is unavoidable the payload prefix
// is copied into the new block and the old block freed. On failure the
// original allocation is left untouched and still owned by the caller.
func (h *Heap) Realloc(p Ptr, size int) (Ptr, []byte, error) {
	h.stats.ReallocCalls++
	if size < 0 {
		return 0, nil, ErrBadSize
	}
	if p == 0 {
		q, buf, err := h.alloc(size)
		if err != nil {
			return 0, nil, err
		}
		h.record(trace.Event{Op: trace.OpRealloc, Size: alignedSize(size), Ptr: uint64(q), Granted: len(buf)})
		return q, buf, nil
	}

	off, ok := h.blockAt(p)
	if !ok || format.BlockIsFree(h.mem, off) {
		return 0, nil, ErrBadRef
	}
	if size == 0 {
		h.release(off)
		h.record(trace.Event{Op: trace.OpRealloc, OldPtr: uint64(p)})
		return 0, nil, nil
	}

	need := format.Align16U64(uint64(size))
	switch {
	case format.BlockSize(h.mem, off) >= need:
		h.shrink(off, need)
	case h.growInPlace(off, need):
		// Absorbed the free successor; block now covers need.
	default:
		return h.relocate(p, off, size, need)
	}

	pay := format.PayloadOffset(off)
	buf := h.mem[pay : pay+format.BlockSize(h.mem, off)]
	h.record(trace.Event{
		Op: trace.OpRealloc, Size: int(need),
		OldPtr: uint64(p), Ptr: uint64(p), Granted: len(buf),
	})
	return p, buf, nil
}

// shrink trims the block at off to need bytes when the surplus can
// stand alone as a free block. The carved remnant may land next to a
// free successor, so it is merged forward to keep free blocks apart.
func (h *Heap) shrink(off, need uint64) {
	if format.BlockSize(h.mem, off)-need < format.SplitThreshold {
		return
	}
	h.split(off, need)
	rest := format.BlockNext(h.mem, off)
	next := format.BlockNext(h.mem, rest)
	if next != format.NilOffset && format.BlockIsFree(h.mem, next) {
		h.absorbNext(rest)
		h.stats.CoalesceForward++
	}
}

// growInPlace reports whether the block at off reached need usable
// bytes by absorbing its free successor. An oversized merge is split
// back down when the surplus clears the threshold; the block after a
// merged successor is never free, so no further merging can follow.
func (h *Heap) growInPlace(off, need uint64) bool {
	next := format.BlockNext(h.mem, off)
	if next == format.NilOffset || !format.BlockIsFree(h.mem, next) {
		return false
	}
	merged := format.BlockSize(h.mem, off) + format.PaddedHeaderSize + format.BlockSize(h.mem, next)
	if merged < need {
		return false
	}
	h.absorbNext(off)
	h.stats.CoalesceForward++
	if merged-need >= format.SplitThreshold {
		h.split(off, need)
	}
	return true
}

// relocate moves the allocation at off into a fresh block of size
// bytes, copying the payload prefix. The old block is released only
// after the new allocation succeeded.
func (h *Heap) relocate(p Ptr, off uint64, size int, need uint64) (Ptr, []byte, error) {
	q, buf, err := h.alloc(size)
	if err != nil {
		return 0, nil, err
	}
	// alloc may have extended the arena; h.mem is already the fresh
	// window, and the old block's offsets are unchanged.
	pay := format.PayloadOffset(off)
	n := format.BlockSize(h.mem, off)
	if n > need {
		n = need
	}
	copy(buf, h.mem[pay:pay+n])
	h.release(off)
	h.record(trace.Event{
		Op: trace.OpRealloc, Size: int(need),
		OldPtr: uint64(p), Ptr: uint64(q), Granted: len(buf),
	})
	return q, buf, nil
}
