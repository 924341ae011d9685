package heap

import "github.com/joshuapare/heapkit/internal/arena"

// Open creates a heap over the platform's preferred arena source: an
// address-space reservation of reserve bytes, or the platform default
// when reserve is not positive. The heap owns the source; Close
// releases it.
//
// Callers that need a specific backing, a bounded test arena for
// example, construct the source themselves and use New.
func Open(reserve int, rec Recorder, config *Config) (*Heap, error) {
	src, err := arena.System(reserve)
	if err != nil {
		return nil, err
	}
	h, err := New(src, rec, config)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	h.owned = src
	return h, nil
}

// Close releases the arena source Open reserved and empties the
// directory. Slices handed out earlier dangle afterwards; further
// allocation fails. Closing a heap built with New over a caller-owned
// source is a no-op, as is closing twice.
func (h *Heap) Close() error {
	if h.owned == nil {
		return nil
	}
	src := h.owned
	h.owned = nil
	h.mem = nil
	h.booted = false
	return src.Close()
}
