// Package heap implements a first-fit block allocator over a single
// growable arena.
//
// # Overview
//
// The heap hands out payload byte ranges carved from one contiguous
// region supplied by an arena source. Open reserves the platform's
// preferred source and owns it; New builds over a caller-supplied one.
// Bookkeeping lives in-band: every allocation is preceded by a 28-byte
// header (padded to 32) that holds the usable size, doubly linked
// neighbor offsets, and a state word. The header list covers the arena
// in ascending address order with its head pinned at offset zero.
//
// # Operations
//
//   - Malloc(size): first free block with enough room, split if worthwhile
//   - Free(p): mark free and merge with adjacent free neighbors
//   - Calloc(count, size): overflow-checked product, zeroed payload
//   - Realloc(p, size): shrink in place, widen into a free successor,
//     or move and copy
//
// # Allocation Policy
//
// Requests round up to the 16-byte alignment unit. The scan is plain
// first fit from the head; when a free block's surplus can hold a
// padded header plus one alignment unit, the tail is split off as a new
// free block, otherwise the whole block is granted. Failed scans append
// a new block at the arena's end instead of reusing interior space.
//
// # Growth
//
// The first grant has a 64 KiB floor (see Config) and becomes the
// directory's single free block. Every later grant is sized for exactly
// one request plus a 16-byte slack allowance and enters the directory
// already in use. The slack is never claimed: block sizes record
// requests, not spans, which keeps merges conservative across grant
// seams. The arena base never moves, so payload slices stay valid as
// the heap grows.
//
// # Handles
//
// Allocations are identified by Ptr, the payload's offset from the
// arena base; the zero Ptr means "no allocation". Operations also
// return the payload as a plain []byte. PointerOf converts such a slice
// back to its Ptr and is the package's single use of unsafe.
//
// # Observers
//
// Each completed public operation emits one trace.Event to the
// configured Recorder. Passing a nil recorder to New selects the
// environment-gated default, which writes lines to stderr when
// HEAPKIT_TRACE is set and otherwise stays silent.
//
// # Thread Safety
//
// Heap instances are not thread-safe. Callers must synchronize access
// externally; returned slices alias arena memory and follow the same
// rule.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/trace: operation events and recorders
//   - github.com/joshuapare/heapkit/pkg/malloc: process-wide drop-in surface
//   - github.com/joshuapare/heapkit/pkg/metrics: Prometheus instrumentation
//   - github.com/joshuapare/heapkit/internal/format: header layout constants
package heap
