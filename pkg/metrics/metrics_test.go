package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/trace"
)

type capturingRecorder struct {
	events []trace.Event
}

func (c *capturingRecorder) Record(ev trace.Event) {
	c.events = append(c.events, ev)
}

// Counters on the default registry accumulate across tests, so every
// assertion here measures a delta.

func TestObserverCountsOperations(t *testing.T) {
	o := &Observer{}
	ops := testutil.ToFloat64(opsTotal.WithLabelValues("malloc"))
	bytes := testutil.ToFloat64(requestedBytes.WithLabelValues("malloc"))

	o.Record(trace.Event{Op: trace.OpMalloc, Size: 32, Ptr: 0x20, Granted: 32})
	o.Record(trace.Event{Op: trace.OpMalloc, Size: 64, Ptr: 0x60, Granted: 64})

	assert.Equal(t, 2.0, testutil.ToFloat64(opsTotal.WithLabelValues("malloc"))-ops)
	assert.Equal(t, 96.0, testutil.ToFloat64(requestedBytes.WithLabelValues("malloc"))-bytes)
}

func TestObserverCountsReleasesWithoutBytes(t *testing.T) {
	o := &Observer{}
	ops := testutil.ToFloat64(opsTotal.WithLabelValues("free"))
	bytes := testutil.ToFloat64(requestedBytes.WithLabelValues("free"))

	o.Record(trace.Event{Op: trace.OpFree, OldPtr: 0x20})

	assert.Equal(t, 1.0, testutil.ToFloat64(opsTotal.WithLabelValues("free"))-ops)
	assert.Equal(t, 0.0, testutil.ToFloat64(requestedBytes.WithLabelValues("free"))-bytes, "a release requests no bytes")
}

func TestObserverForwardsToNext(t *testing.T) {
	next := &capturingRecorder{}
	o := &Observer{Next: next}

	ev := trace.Event{Op: trace.OpCalloc, Count: 3, Unit: 5, Size: 16, Ptr: 0x20, Granted: 16}
	o.Record(ev)

	require.Len(t, next.events, 1)
	assert.Equal(t, ev, next.events[0], "events should pass through unchanged")
}

func TestObserverNilNextIsSafe(t *testing.T) {
	o := &Observer{}
	o.Record(trace.Event{Op: trace.OpRealloc, Size: 48, OldPtr: 0x20, Ptr: 0x20, Granted: 48})
}

func TestCollectorExportsGauges(t *testing.T) {
	c := NewCollector(func() heap.Stats {
		return heap.Stats{
			ArenaBytes: 65536,
			FreeBytes:  1024,
			LiveBlocks: 3,
			FreeBlocks: 2,
		}
	})

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_arena_bytes Current arena extent in bytes.
# TYPE heapkit_arena_bytes gauge
heapkit_arena_bytes 65536
`), "heapkit_arena_bytes"))

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_blocks Directory entries by state.
# TYPE heapkit_blocks gauge
heapkit_blocks{state="free"} 2
heapkit_blocks{state="live"} 3
`), "heapkit_blocks"))
}

func TestCollectorExportsCounters(t *testing.T) {
	c := NewCollector(func() heap.Stats {
		return heap.Stats{
			GrowCalls:        4,
			GrowBytes:        70000,
			Splits:           5,
			CoalesceForward:  6,
			CoalesceBackward: 1,
			FailedAllocs:     7,
		}
	})

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_coalesces_total Free block merges by direction.
# TYPE heapkit_coalesces_total counter
heapkit_coalesces_total{direction="backward"} 1
heapkit_coalesces_total{direction="forward"} 6
`), "heapkit_coalesces_total"))

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_grow_bytes_total Total bytes granted by the arena.
# TYPE heapkit_grow_bytes_total counter
heapkit_grow_bytes_total 70000
`), "heapkit_grow_bytes_total"))

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_failed_allocs_total Requests refused for lack of memory.
# TYPE heapkit_failed_allocs_total counter
heapkit_failed_allocs_total 7
`), "heapkit_failed_allocs_total"))
}

func TestCollectorTracksLiveSnapshots(t *testing.T) {
	stats := heap.Stats{ArenaBytes: 100}
	c := NewCollector(func() heap.Stats { return stats })

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_arena_bytes Current arena extent in bytes.
# TYPE heapkit_arena_bytes gauge
heapkit_arena_bytes 100
`), "heapkit_arena_bytes"))

	stats.ArenaBytes = 200
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP heapkit_arena_bytes Current arena extent in bytes.
# TYPE heapkit_arena_bytes gauge
heapkit_arena_bytes 200
`), "heapkit_arena_bytes"))
}
