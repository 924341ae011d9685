package heap

import (
	"fmt"
	"math"
	"os"

	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/arena"
	"github.com/joshuapare/heapkit/internal/format"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugHeap = false

// Heap is a first-fit block allocator over a single growable arena.
//
// Blocks form a doubly linked list threaded through the arena in
// ascending address order, with the head pinned at offset zero. Free
// neighbors are merged eagerly on release, so the list never contains
// two adjacent free blocks.
type Heap struct {
	src arena.Source
	mem []byte // src.Bytes() window, refreshed after every extend
	rec trace.Recorder
	cfg Config

	// owned is the source Open reserved; Close releases it. Nil for
	// heaps over caller-supplied sources.
	owned arena.Source

	// booted is set once the bootstrap grant installed the head block.
	booted bool

	// Statistics for testing and instrumentation
	stats Stats

	// lastErr is the most recent allocation failure, kept for
	// diagnostics. Never cleared by later successes.
	lastErr error
}

// New creates a heap over src. The source must be fresh: the heap owns
// the whole region and lays the directory out from offset zero.
//
// Parameters:
//   - src: the backing arena source
//   - rec: operation recorder (nil selects trace.Default, which is off
//     unless the HEAPKIT_TRACE environment variable is set)
//   - config: tuning knobs (nil for DefaultConfig)
func New(src arena.Source, rec Recorder, config *Config) (*Heap, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if len(src.Bytes()) != 0 {
		return nil, ErrSourceNotEmpty
	}
	if config == nil {
		config = &DefaultConfig
	}
	cfg := *config
	if cfg.BootstrapChunk < format.PaddedHeaderSize+format.MinPayload {
		cfg.BootstrapChunk = format.BootstrapChunk
	} else {
		cfg.BootstrapChunk = format.Align16(cfg.BootstrapChunk)
	}
	if rec == nil {
		rec = trace.Default()
	}
	return &Heap{src: src, mem: src.Bytes(), rec: rec, cfg: cfg}, nil
}

// Malloc allocates size bytes and returns the payload handle plus a
// slice over the full usable payload. The request is rounded up to the
// alignment unit, so the slice can be longer than size.
//
// A zero size returns the zero handle and a nil slice with no error.
func (h *Heap) Malloc(size int) (Ptr, []byte, error) {
	h.stats.MallocCalls++
	p, buf, err := h.alloc(size)
	if err != nil {
		return 0, nil, err
	}
	h.record(trace.Event{Op: trace.OpMalloc, Size: alignedSize(size), Ptr: uint64(p), Granted: len(buf)})
	return p, buf, nil
}

// LastFailure returns the most recent allocation failure, or nil when
// every request so far has succeeded. It is never cleared, so callers
// that batch operations can ask once at the end.
func (h *Heap) LastFailure() error {
	return h.lastErr
}

// alloc is the first-fit path shared by Malloc, Calloc, and relocation.
// It emits no trace events; the public wrappers do.
func (h *Heap) alloc(size int) (Ptr, []byte, error) {
	if size < 0 {
		return 0, nil, ErrBadSize
	}
	if size == 0 {
		return 0, nil, nil
	}
	need := format.Align16U64(uint64(size))

	if !h.booted {
		if err := h.bootstrap(need); err != nil {
			return 0, nil, err
		}
	}

	cur, last := h.findFit(need)
	if cur == format.NilOffset {
		// Nothing fits; append a grant sized for exactly this request.
		blk, err := h.grow(last, need)
		if err != nil {
			return 0, nil, err
		}
		p := format.PayloadOffset(blk)
		h.stats.BytesAllocated += int64(need)
		return Ptr(p), h.mem[p : p+need], nil
	}
	return h.claim(cur, need)
}

// findFit scans the directory head to tail for the first free block
// with at least need usable bytes. It also returns the last block
// visited; when no block fits that is the directory tail, which the
// grow path links the new grant after.
func (h *Heap) findFit(need uint64) (match, last uint64) {
	match, last = format.NilOffset, format.NilOffset
	for off := h.head(); off != format.NilOffset; off = format.BlockNext(h.mem, off) {
		last = off
		if format.BlockIsFree(h.mem, off) && format.BlockSize(h.mem, off) >= need {
			return off, last
		}
	}
	return format.NilOffset, last
}

// claim marks a fitting free block in use, splitting off the tail when
// the surplus can host another block.
func (h *Heap) claim(off, need uint64) (Ptr, []byte, error) {
	if format.BlockSize(h.mem, off)-need >= format.SplitThreshold {
		h.split(off, need)
	}
	format.SetBlockFree(h.mem, off, false)
	size := format.BlockSize(h.mem, off)
	h.stats.BytesAllocated += int64(size)
	p := format.PayloadOffset(off)
	return Ptr(p), h.mem[p : p+size], nil
}

// split carves the surplus of the block at off into a new free block
// spliced immediately after it, shrinking the block to exactly need.
// The caller guarantees the surplus clears SplitThreshold, so the
// remnant keeps at least MinPayload usable bytes.
func (h *Heap) split(off, need uint64) {
	rest := format.BlockSize(h.mem, off) - need - format.PaddedHeaderSize
	tail := format.PayloadOffset(off) + need
	next := format.BlockNext(h.mem, off)

	format.WriteBlock(h.mem, tail, rest, next, off, true)
	if next != format.NilOffset {
		format.SetBlockPrev(h.mem, next, tail)
	}
	format.SetBlockNext(h.mem, off, tail)
	format.SetBlockSize(h.mem, off, need)
	h.stats.Splits++
}

// bootstrap obtains the first grant and installs it as the directory's
// single free block, spanning the entire grant. The grant has a
// configured floor so that a run of small allocations costs one
// extension call.
func (h *Heap) bootstrap(need uint64) error {
	grant := uint64(h.cfg.BootstrapChunk)
	if format.PaddedHeaderSize+need > grant {
		grant = format.PaddedHeaderSize + need + format.GrowSlack
	}
	mem, err := h.extend(grant)
	if err != nil {
		return err
	}
	h.mem = mem
	format.WriteBlock(h.mem, 0, grant-format.PaddedHeaderSize, format.NilOffset, format.NilOffset, true)
	h.booted = true
	return nil
}

// grow appends a grant of exactly one padded header plus need plus the
// tail slack, and links it after the directory tail as an in-use block
// of exactly need usable bytes. The slack stays unclaimed; block sizes
// record what was requested, not the raw span, so coalescing later is
// conservative across grant seams.
func (h *Heap) grow(tail, need uint64) (uint64, error) {
	off := uint64(len(h.mem))
	mem, err := h.extend(format.PaddedHeaderSize + need + format.GrowSlack)
	if err != nil {
		return 0, err
	}
	h.mem = mem
	format.WriteBlock(h.mem, off, need, format.NilOffset, tail, false)
	format.SetBlockNext(h.mem, tail, off)
	return off, nil
}

// extend asks the source for grant more bytes and folds any refusal
// into the out-of-memory error.
func (h *Heap) extend(grant uint64) ([]byte, error) {
	if grant > uint64(math.MaxInt) {
		return nil, h.oom(fmt.Errorf("grant %d exceeds address space", grant))
	}
	mem, err := h.src.Extend(int(grant))
	if err != nil {
		return nil, h.oom(fmt.Errorf("extend %d bytes: %w", grant, err))
	}
	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(grant)
	return mem, nil
}

// oom records the failure for diagnostics and returns ErrNoSpace with
// the cause folded into the message.
func (h *Heap) oom(cause error) error {
	h.stats.FailedAllocs++
	err := fmt.Errorf("%w (%v)", ErrNoSpace, cause)
	h.lastErr = err
	if debugHeap {
		debugLogf("allocation failed: %v", cause)
	}
	return err
}

// head returns the offset of the first directory block, or NilOffset
// before bootstrap. The head is pinned at zero once it exists.
func (h *Heap) head() uint64 {
	if !h.booted {
		return format.NilOffset
	}
	return 0
}

// record forwards an event to the recorder, if any.
func (h *Heap) record(ev trace.Event) {
	if h.rec != nil {
		h.rec.Record(ev)
	}
}

// alignedSize reports the normalized request size for trace events.
func alignedSize(size int) int {
	if size <= 0 {
		return 0
	}
	return format.Align16(size)
}

// debugLogf prints debug messages if debugHeap is enabled.
func debugLogf(msg string, args ...any) {
	if debugHeap {
		fmt.Fprintf(os.Stderr, "[HEAP] "+msg+"\n", args...)
	}
}
