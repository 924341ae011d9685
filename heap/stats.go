package heap

import "github.com/joshuapare/heapkit/internal/format"

// Stats is a snapshot of allocator activity. Call counters track the
// public operations as invoked; the gauge fields at the bottom are
// computed from the directory when Stats is called.
type Stats struct {
	MallocCalls  int // Total Malloc() calls
	FreeCalls    int // Total Free() calls, including no-ops
	CallocCalls  int // Total Calloc() calls
	ReallocCalls int // Total Realloc() calls

	GrowCalls int   // Arena extension calls, bootstrap included
	GrowBytes int64 // Total bytes granted by the arena

	Splits           int // Free block splits
	CoalesceForward  int // Merges absorbing a successor
	CoalesceBackward int // Merges absorbing into a predecessor

	BytesAllocated int64 // Usable bytes handed out
	BytesFreed     int64 // Usable bytes returned
	FailedAllocs   int   // Requests refused for lack of memory

	// Directory gauges, valid in the returned snapshot only.
	ArenaBytes int64 // Current arena extent
	LiveBlocks int   // In-use directory entries
	FreeBlocks int   // Free directory entries
	FreeBytes  int64 // Usable bytes across free entries
}

// Stats returns the current counters plus directory gauges.
func (h *Heap) Stats() Stats {
	s := h.stats
	s.ArenaBytes = int64(len(h.mem))
	for off := h.head(); off != format.NilOffset; off = format.BlockNext(h.mem, off) {
		if format.BlockIsFree(h.mem, off) {
			s.FreeBlocks++
			s.FreeBytes += int64(format.BlockSize(h.mem, off))
		} else {
			s.LiveBlocks++
		}
	}
	return s
}

// BlockInfo describes one directory entry.
type BlockInfo struct {
	Off  uint64 // Header offset from the arena base
	Size int    // Usable payload bytes
	Free bool
}

// Blocks returns the directory in address order. The slice is a
// snapshot; later operations do not change it.
func (h *Heap) Blocks() []BlockInfo {
	var out []BlockInfo
	for off := h.head(); off != format.NilOffset; off = format.BlockNext(h.mem, off) {
		out = append(out, BlockInfo{
			Off:  off,
			Size: int(format.BlockSize(h.mem, off)),
			Free: format.BlockIsFree(h.mem, off),
		})
	}
	return out
}
