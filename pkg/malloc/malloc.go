package malloc

import "github.com/joshuapare/heapkit/heap"

// The process-wide heap, created on first use and never torn down.
// Lives for the rest of the process like the C heap it stands in for.
var (
	std     *heap.Heap
	initErr error
)

// get returns the process-wide heap, creating it over the platform's
// preferred arena source on first use. A creation failure is sticky.
func get() *heap.Heap {
	if std == nil && initErr == nil {
		std, initErr = heap.Open(0, nil, nil)
	}
	return std
}

// Malloc allocates size bytes and returns a slice over the usable
// payload, which may be longer than size. It returns nil when size is
// not positive or the request cannot be satisfied.
func Malloc(size int) []byte {
	h := get()
	if h == nil {
		return nil
	}
	_, buf, err := h.Malloc(size)
	if err != nil {
		return nil
	}
	return buf
}

// Calloc allocates zeroed memory for count elements of size bytes
// each. It returns nil when either factor is not positive, the product
// overflows, or the request cannot be satisfied.
func Calloc(count, size int) []byte {
	h := get()
	if h == nil {
		return nil
	}
	_, buf, err := h.Calloc(count, size)
	if err != nil {
		return nil
	}
	return buf
}

// Realloc resizes an allocation. A nil b allocates like Malloc; a zero
// size frees b and returns nil. On failure Realloc returns nil and b
// remains valid. A slice this package did not return yields nil with
// the heap untouched.
func Realloc(b []byte, size int) []byte {
	h := get()
	if h == nil {
		return nil
	}
	var p heap.Ptr
	if b != nil {
		if p = h.PointerOf(b); p == 0 {
			return nil
		}
	}
	_, buf, err := h.Realloc(p, size)
	if err != nil {
		return nil
	}
	return buf
}

// Free returns an allocation to the process-wide heap. Nil slices,
// slices this package did not return, and repeated frees of the same
// allocation are ignored. Free never creates the heap.
func Free(b []byte) {
	if b == nil || std == nil {
		return
	}
	std.Free(std.PointerOf(b))
}

// Err returns the reason the most recent failed operation failed, or
// nil when nothing has failed. It is never cleared by later successes.
func Err() error {
	if initErr != nil {
		return initErr
	}
	if std == nil {
		return nil
	}
	return std.LastFailure()
}

// reset discards the process-wide heap so tests start clean. Slices
// handed out before reset dangle; only tests may call this.
func reset() {
	if std != nil {
		_ = std.Close()
	}
	std, initErr = nil, nil
}
