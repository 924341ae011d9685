package arena

import (
	"unsafe"

	"github.com/joshuapare/heapkit/internal/format"
)

// Fixed is a bounded, slice-backed source. It serves two roles: the
// fallback on platforms without the mmap source, and a deterministic
// bounded arena for exercising out-of-memory paths in tests.
type Fixed struct {
	buf     []byte // aligned capacity window
	granted int
	closed  bool
}

// NewFixed returns a source with the given fixed capacity. The backing
// slice is over-allocated by one alignment unit and the window rounded
// up so the base address is 16-byte aligned; Go's collector does not
// move heap objects, so the alignment holds for the source's lifetime.
func NewFixed(capacity int) (*Fixed, error) {
	if capacity <= 0 {
		return nil, ErrBadSize
	}
	raw := make([]byte, capacity+format.AlignUnit)
	pad := int(-uintptr(unsafe.Pointer(&raw[0])) & format.AlignMask)
	return &Fixed{buf: raw[pad : pad+capacity]}, nil
}

// Bytes returns the granted region.
func (f *Fixed) Bytes() []byte {
	return f.buf[:f.granted]
}

// Extend grows the granted region by n bytes, up to the fixed capacity.
func (f *Fixed) Extend(n int) ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, ErrBadSize
	}
	if n > len(f.buf)-f.granted {
		return nil, ErrNoMemory
	}
	f.granted += n
	return f.buf[:f.granted], nil
}

// Close drops the backing slice. Double close is a no-op.
func (f *Fixed) Close() error {
	f.closed = true
	f.buf = nil
	f.granted = 0
	return nil
}
