package heap

import (
	"fmt"

	"github.com/JohnCGriffin/overflow"

	"github.com/joshuapare/heapkit/heap/trace"
)

// Calloc allocates zeroed memory for count elements of size bytes each.
// The count*size product is overflow-checked; overflow reports
// ErrNoSpace, indistinguishable from exhaustion to the caller. A zero
// count or size returns the zero handle with no error.
func (h *Heap) Calloc(count, size int) (Ptr, []byte, error) {
	h.stats.CallocCalls++
	if count < 0 || size < 0 {
		return 0, nil, ErrBadSize
	}
	total, ok := overflow.Mul(count, size)
	if !ok {
		return 0, nil, h.oom(fmt.Errorf("calloc %d*%d overflows", count, size))
	}
	p, buf, err := h.alloc(total)
	if err != nil {
		return 0, nil, err
	}
	// Zero the whole granted payload, not just the requested product;
	// reused blocks carry whatever the previous owner wrote.
	clear(buf)
	h.record(trace.Event{
		Op: trace.OpCalloc, Count: count, Unit: size,
		Size: alignedSize(total), Ptr: uint64(p), Granted: len(buf),
	})
	return p, buf, nil
}
