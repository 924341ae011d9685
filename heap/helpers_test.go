package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/arena"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestHeap creates a heap over a bounded in-memory arena. The fixed
// capacity bounds total growth, so exhaustion paths are deterministic.
func newTestHeap(t testing.TB, capacity int) *Heap {
	t.Helper()
	return newTestHeapConfig(t, capacity, nil, nil)
}

// newTestHeapChunk creates a heap whose bootstrap grant is chunk bytes
// instead of the 64 KiB default, keeping directory layouts small enough
// to assert block by block.
func newTestHeapChunk(t testing.TB, capacity, chunk int) *Heap {
	t.Helper()
	return newTestHeapConfig(t, capacity, nil, &Config{BootstrapChunk: chunk})
}

// newObservedHeap creates a heap wired to a capturing recorder.
func newObservedHeap(t testing.TB, capacity int) (*Heap, *recordingObserver) {
	t.Helper()
	rec := &recordingObserver{}
	return newTestHeapConfig(t, capacity, rec, nil), rec
}

func newTestHeapConfig(t testing.TB, capacity int, rec Recorder, config *Config) *Heap {
	t.Helper()

	src, err := arena.NewFixed(capacity)
	require.NoError(t, err, "failed to create test arena")
	t.Cleanup(func() { _ = src.Close() })

	h, err := New(src, rec, config)
	require.NoError(t, err, "failed to create heap")
	return h
}

// mustMalloc allocates or fails the test.
func mustMalloc(t testing.TB, h *Heap, size int) (Ptr, []byte) {
	t.Helper()
	p, buf, err := h.Malloc(size)
	require.NoError(t, err, "Malloc(%d) should succeed", size)
	require.NotZero(t, p, "Malloc(%d) returned the zero handle", size)
	return p, buf
}

// assertVerify fails the test when the directory invariants are broken.
func assertVerify(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Verify(), "block directory invariants should hold")
}

// fill writes a deterministic byte pattern derived from seed.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// filled reports whether b still carries the pattern written by fill.
func filled(b []byte, seed byte) bool {
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}

// ============================================================================
// Observers
// ============================================================================

// recordingObserver captures every event for inspection.
type recordingObserver struct {
	events []trace.Event
}

func (r *recordingObserver) Record(ev trace.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingObserver) last(t testing.TB) trace.Event {
	t.Helper()
	require.NotEmpty(t, r.events, "expected at least one recorded event")
	return r.events[len(r.events)-1]
}
