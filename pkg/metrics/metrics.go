// Package metrics exports allocator activity in the Prometheus format.
//
// Two pieces cover the two kinds of signal: Observer counts operations
// as they happen, Collector exports a statistics snapshot on scrape.
// Both attach to a heap without the heap knowing; the allocator core
// stays free of instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	// opsTotal counts completed operations by kind.
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapkit_ops_total",
			Help: "Total number of completed allocator operations",
		},
		[]string{"op"},
	)
	// requestedBytes sums aligned request sizes by operation kind.
	requestedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapkit_requested_bytes_total",
			Help: "Total aligned bytes requested from the allocator",
		},
		[]string{"op"},
	)
)

// Observer is a trace.Recorder feeding the operation counters. Install
// it as a heap's recorder; events pass through to Next when set, so the
// stderr trace and the counters can run off the same hook.
type Observer struct {
	Next trace.Recorder
}

// Record implements trace.Recorder.
func (o *Observer) Record(ev trace.Event) {
	op := ev.Op.String()
	opsTotal.WithLabelValues(op).Inc()
	if ev.Size > 0 {
		requestedBytes.WithLabelValues(op).Add(float64(ev.Size))
	}
	if o.Next != nil {
		o.Next.Record(ev)
	}
}

// Collector exports a statistics snapshot as Prometheus metrics. The
// snapshot closure runs on every scrape; a heap shared across
// goroutines needs a closure that takes the caller's lock, since the
// scrape arrives on an HTTP serve goroutine.
type Collector struct {
	snap func() heap.Stats

	arenaBytes   *prometheus.Desc
	freeBytes    *prometheus.Desc
	blocks       *prometheus.Desc
	growCalls    *prometheus.Desc
	growBytes    *prometheus.Desc
	splits       *prometheus.Desc
	coalesces    *prometheus.Desc
	failedAllocs *prometheus.Desc
}

// NewCollector returns a Collector reading from snap. Register it with
// prometheus.MustRegister or a dedicated registry.
func NewCollector(snap func() heap.Stats) *Collector {
	return &Collector{
		snap: snap,
		arenaBytes: prometheus.NewDesc(
			"heapkit_arena_bytes", "Current arena extent in bytes.", nil, nil),
		freeBytes: prometheus.NewDesc(
			"heapkit_free_bytes", "Usable bytes across free blocks.", nil, nil),
		blocks: prometheus.NewDesc(
			"heapkit_blocks", "Directory entries by state.", []string{"state"}, nil),
		growCalls: prometheus.NewDesc(
			"heapkit_grow_calls_total", "Arena extension calls, bootstrap included.", nil, nil),
		growBytes: prometheus.NewDesc(
			"heapkit_grow_bytes_total", "Total bytes granted by the arena.", nil, nil),
		splits: prometheus.NewDesc(
			"heapkit_splits_total", "Free block splits.", nil, nil),
		coalesces: prometheus.NewDesc(
			"heapkit_coalesces_total", "Free block merges by direction.", []string{"direction"}, nil),
		failedAllocs: prometheus.NewDesc(
			"heapkit_failed_allocs_total", "Requests refused for lack of memory.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.arenaBytes
	ch <- c.freeBytes
	ch <- c.blocks
	ch <- c.growCalls
	ch <- c.growBytes
	ch <- c.splits
	ch <- c.coalesces
	ch <- c.failedAllocs
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snap()
	ch <- prometheus.MustNewConstMetric(c.arenaBytes, prometheus.GaugeValue, float64(s.ArenaBytes))
	ch <- prometheus.MustNewConstMetric(c.freeBytes, prometheus.GaugeValue, float64(s.FreeBytes))
	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(s.LiveBlocks), "live")
	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(s.FreeBlocks), "free")
	ch <- prometheus.MustNewConstMetric(c.growCalls, prometheus.CounterValue, float64(s.GrowCalls))
	ch <- prometheus.MustNewConstMetric(c.growBytes, prometheus.CounterValue, float64(s.GrowBytes))
	ch <- prometheus.MustNewConstMetric(c.splits, prometheus.CounterValue, float64(s.Splits))
	ch <- prometheus.MustNewConstMetric(c.coalesces, prometheus.CounterValue, float64(s.CoalesceForward), "forward")
	ch <- prometheus.MustNewConstMetric(c.coalesces, prometheus.CounterValue, float64(s.CoalesceBackward), "backward")
	ch <- prometheus.MustNewConstMetric(c.failedAllocs, prometheus.CounterValue, float64(s.FailedAllocs))
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
