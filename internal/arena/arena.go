// Package arena provides the memory sources that back a heap. A source
// hands out one contiguous byte region that only ever grows. The
// region's base address never moves, so slices taken from it remain
// valid across growth.
package arena

import "errors"

// Source supplies the backing region for an allocator.
//
// Implementations guarantee:
//   - Bytes returns a window over the same underlying array on every
//     call; its length is the granted extent.
//   - Extend(n) grows the extent by exactly n bytes without moving the
//     base and returns the full window.
//   - A failed Extend leaves the extent unchanged.
//
// Sources are not safe for concurrent use.
type Source interface {
	// Bytes returns the granted region.
	Bytes() []byte

	// Extend grows the granted region by n bytes.
	Extend(n int) ([]byte, error)

	// Close releases the region. Slices obtained from the source are
	// invalid afterwards.
	Close() error
}

var (
	// ErrNoMemory is returned when a source cannot extend further.
	ErrNoMemory = errors.New("arena: out of memory")

	// ErrClosed is returned on use after Close.
	ErrClosed = errors.New("arena: closed")

	// ErrBadSize is returned for a non-positive extension or capacity.
	ErrBadSize = errors.New("arena: size must be positive")
)

// DefaultReserve is the address-space reservation used by System when
// the caller does not choose one. The reservation is virtual only;
// physical pages are committed as the heap extends.
const DefaultReserve = 1 << 30
