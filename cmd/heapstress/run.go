package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/trace"
	"github.com/joshuapare/heapkit/internal/arena"
	"github.com/joshuapare/heapkit/pkg/metrics"
)

var (
	runOps         int
	runWorkers     int
	runMaxSize     int
	runSeed        int64
	runLive        int
	runShared      bool
	runReserve     int
	runMetricsAddr string
	runVerifyEvery int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runOps, "ops", 10000, "Operations per worker")
	cmd.Flags().IntVar(&runWorkers, "workers", 4, "Number of concurrent workers")
	cmd.Flags().IntVar(&runMaxSize, "max-size", 4096, "Largest single request in bytes")
	cmd.Flags().Int64Var(&runSeed, "seed", 1, "Base random seed; worker i runs with seed+i")
	cmd.Flags().IntVar(&runLive, "live", 128, "Most blocks each worker keeps live")
	cmd.Flags().BoolVar(&runShared, "shared", false, "Share one mutex-guarded heap across all workers")
	cmd.Flags().IntVar(&runReserve, "reserve", 0, "Arena reservation in bytes (0 = platform default)")
	cmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	cmd.Flags().IntVar(&runVerifyEvery, "verify-every", 1000, "Check directory invariants every N operations (0 = only at the end)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a randomized allocation workload",
		Long: `The run command hammers the allocator with a seeded mix of malloc,
free, calloc, and realloc calls, checking payload integrity and
directory invariants as it goes, and prints a report.

By default every worker gets a private heap. With --shared all workers
hit a single heap behind a mutex, the external-locking pattern the
allocator expects from concurrent callers. --metrics-addr serves
Prometheus metrics for the duration of the run; with --shared that
includes the heap gauges, scraped under the same mutex.

Example:
  heapstress run --ops 100000 --workers 8
  heapstress run --shared --workers 8 --metrics-addr :9090
  heapstress run --reserve 1048576 --max-size 65536 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun()
		},
	}
}

// runReport is the run command's output, JSON or human.
type runReport struct {
	Mode          string
	Workers       int
	OpsPerWorker  int
	MaxSize       int
	Seed          int64
	Elapsed       string
	TotalOps      int
	TotalAllocs   int
	TotalFrees    int
	TotalResizes  int
	TotalFailures int
	Heap          heap.Stats
	Results       []workloadResult
}

func runRun() error {
	if runOps < 1 || runWorkers < 1 || runMaxSize < 1 || runLive < 1 {
		return fmt.Errorf("ops, workers, max-size, and live must all be positive")
	}

	if runMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: runMetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				printError("metrics server: %v\n", err)
			}
		}()
		defer srv.Close()
		printVerbose("Serving metrics on %s/metrics\n", runMetricsAddr)
	}

	// With metrics on, operation counters feed Prometheus and the
	// env-gated stderr trace keeps working behind them.
	var rec trace.Recorder
	if runMetricsAddr != "" {
		rec = &metrics.Observer{Next: trace.Default()}
	}

	var (
		sharedHeap *heap.Heap
		sharedMu   sync.Mutex
	)
	if runShared {
		src, err := arena.System(runReserve)
		if err != nil {
			return fmt.Errorf("failed to reserve arena: %w", err)
		}
		defer src.Close()
		if sharedHeap, err = heap.New(src, rec, nil); err != nil {
			return err
		}
		if runMetricsAddr != "" {
			c := metrics.NewCollector(func() heap.Stats {
				sharedMu.Lock()
				defer sharedMu.Unlock()
				return sharedHeap.Stats()
			})
			if err := prometheus.Register(c); err != nil {
				printVerbose("heap collector not registered: %v\n", err)
			}
		}
	}

	pool, err := ants.NewPool(runWorkers, ants.WithPanicHandler(func(v interface{}) {
		printError("worker panic: %v\n", v)
	}))
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer func() { _ = pool.ReleaseTimeout(3 * time.Second) }()

	results := make([]workloadResult, runWorkers)
	errs := make([]error, runWorkers)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < runWorkers; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = runOneWorker(i, sharedHeap, &sharedMu, rec)
		}); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to submit worker %d: %w", i, err)
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	if err := errors.Join(errs...); err != nil {
		return err
	}

	report := buildReport(results, elapsed)
	if runShared {
		// Every worker drained, so the shared directory must be empty
		// and fully merged again.
		sharedMu.Lock()
		verr := sharedHeap.Verify()
		derr := checkDrained(sharedHeap)
		report.Heap = sharedHeap.Stats()
		sharedMu.Unlock()
		if err := errors.Join(verr, derr); err != nil {
			return err
		}
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

// runOneWorker runs one workload, on the shared heap when there is one
// and on a freshly reserved private heap otherwise.
func runOneWorker(i int, shared *heap.Heap, mu *sync.Mutex, rec trace.Recorder) (workloadResult, error) {
	cfg := workloadConfig{
		Ops:         runOps,
		MaxSize:     runMaxSize,
		MaxLive:     runLive,
		Seed:        runSeed + int64(i),
		VerifyEvery: runVerifyEvery,
		Drain:       true,
	}

	var (
		h    *heap.Heap
		lock sync.Locker
	)
	if shared != nil {
		h, lock = shared, mu
	} else {
		src, err := arena.System(runReserve)
		if err != nil {
			return workloadResult{Worker: i}, fmt.Errorf("worker %d: failed to reserve arena: %w", i, err)
		}
		defer src.Close()
		if h, err = heap.New(src, rec, nil); err != nil {
			return workloadResult{Worker: i}, err
		}
	}

	res, err := runWorkload(h, lock, cfg)
	res.Worker = i
	if err != nil {
		return res, fmt.Errorf("worker %d: %w", i, err)
	}
	if shared == nil {
		if err := checkDrained(h); err != nil {
			return res, fmt.Errorf("worker %d: %w", i, err)
		}
	}
	return res, nil
}

func buildReport(results []workloadResult, elapsed time.Duration) runReport {
	report := runReport{
		Mode:         "private",
		Workers:      runWorkers,
		OpsPerWorker: runOps,
		MaxSize:      runMaxSize,
		Seed:         runSeed,
		Elapsed:      elapsed.Round(time.Millisecond).String(),
		Results:      results,
	}
	if runShared {
		report.Mode = "shared"
	}
	for _, r := range results {
		report.TotalOps += r.Ops
		report.TotalAllocs += r.Allocs
		report.TotalFrees += r.Frees
		report.TotalResizes += r.Resizes
		report.TotalFailures += r.Failures
		if !runShared {
			addStats(&report.Heap, r.Stats)
		}
	}
	return report
}

// addStats folds one private heap's counters into the report total.
func addStats(total *heap.Stats, s heap.Stats) {
	total.MallocCalls += s.MallocCalls
	total.FreeCalls += s.FreeCalls
	total.CallocCalls += s.CallocCalls
	total.ReallocCalls += s.ReallocCalls
	total.GrowCalls += s.GrowCalls
	total.GrowBytes += s.GrowBytes
	total.Splits += s.Splits
	total.CoalesceForward += s.CoalesceForward
	total.CoalesceBackward += s.CoalesceBackward
	total.BytesAllocated += s.BytesAllocated
	total.BytesFreed += s.BytesFreed
	total.FailedAllocs += s.FailedAllocs
	total.ArenaBytes += s.ArenaBytes
	total.LiveBlocks += s.LiveBlocks
	total.FreeBlocks += s.FreeBlocks
	total.FreeBytes += s.FreeBytes
}

func printReport(report runReport) {
	p := message.NewPrinter(language.English)

	printInfo("%s\n", p.Sprintf("Completed %d operations across %d workers (%s mode) in %s",
		report.TotalOps, report.Workers, report.Mode, report.Elapsed))
	printInfo("%s\n", p.Sprintf("  allocs: %d  frees: %d  resizes: %d  refused: %d",
		report.TotalAllocs, report.TotalFrees, report.TotalResizes, report.TotalFailures))
	printInfo("%s\n", p.Sprintf("  arena: %d bytes across %d grants",
		report.Heap.GrowBytes, report.Heap.GrowCalls))
	printInfo("%s\n", p.Sprintf("  splits: %d  coalesces: %d forward, %d backward",
		report.Heap.Splits, report.Heap.CoalesceForward, report.Heap.CoalesceBackward))

	for _, r := range report.Results {
		printVerbose("%s\n", p.Sprintf("  worker %d: %d ops, %d allocs, %d frees, %d resizes, peak %d live, %d refused",
			r.Worker, r.Ops, r.Allocs, r.Frees, r.Resizes, r.PeakLive, r.Failures))
	}
}
