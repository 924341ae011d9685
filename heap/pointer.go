package heap

import "unsafe"

// PointerOf recovers the payload handle for a slice previously returned
// by this heap. It is the package's single unsafe boundary: the slice's
// base address is measured against the arena base. Slices that do not
// point at a payload of this arena yield the zero handle.
//
// Only a drop-in release/resize surface needs this; code that keeps the
// Ptr returned by the allocation calls never does.
func (h *Heap) PointerOf(b []byte) Ptr {
	if len(b) == 0 || len(h.mem) == 0 {
		return 0
	}
	base := uintptr(unsafe.Pointer(&h.mem[0]))
	addr := uintptr(unsafe.Pointer(&b[0]))
	if addr < base || addr-base >= uintptr(len(h.mem)) {
		return 0
	}
	p := Ptr(addr - base)
	if _, ok := h.blockAt(p); !ok {
		return 0
	}
	return p
}
