package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	SizeClass   string
	Iterations  int
	NsPerOp     float64
	MBPerSec    float64
	BytesPerOp  int64
	AllocsPerOp int64
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	report := generateMarkdownReport(results)

	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkMallocFree/4KB-8    5000000    231.5 ns/op    68.40 MB/s    0 B/op    0 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+MB/s)?(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var mbPerSec float64
		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			mbPerSec, _ = strconv.ParseFloat(matches[4], 64)
		}
		if matches[5] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}
		if matches[6] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[6], 10, 64)
		}

		operation, sizeClass := splitBenchmarkName(name)

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			SizeClass:   sizeClass,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			MBPerSec:    mbPerSec,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func splitBenchmarkName(name string) (string, string) {
	// Format: Benchmark<Operation>/<size>-<procs>
	// Or flat: Benchmark<Operation>-<procs>

	parts := strings.Split(name, "/")

	operation := strings.TrimPrefix(parts[0], "Benchmark")

	var sizeClass string
	if len(parts) >= 2 {
		sizeClass = parts[len(parts)-1]
	} else {
		// Flat benchmarks carry the -N suffix on the operation itself
		if dashIdx := strings.LastIndex(operation, "-"); dashIdx > 0 {
			operation = operation[:dashIdx]
		}
		return operation, ""
	}

	// Strip the -N GOMAXPROCS suffix from the size class
	if dashIdx := strings.LastIndex(sizeClass, "-"); dashIdx > 0 {
		sizeClass = sizeClass[:dashIdx]
	}

	return operation, sizeClass
}

// sizeClassBytes ranks size classes like 16B, 4KB, 64KB for table ordering.
// Unrecognized classes rank last, in name order.
func sizeClassBytes(class string) int64 {
	s := class
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "MB"):
		mult = 1 << 20
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		mult = 1 << 10
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n * mult
}

func generateMarkdownReport(results []BenchmarkResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Group by operation, preserving first-seen order
	var operations []string
	grouped := make(map[string][]BenchmarkResult)
	for _, r := range results {
		if _, ok := grouped[r.Operation]; !ok {
			operations = append(operations, r.Operation)
		}
		grouped[r.Operation] = append(grouped[r.Operation], r)
	}

	// Summary statistics
	zeroAlloc := 0
	peakMB := 0.0
	peakName := ""
	for _, r := range results {
		if r.AllocsPerOp == 0 {
			zeroAlloc++
		}
		if r.MBPerSec > peakMB {
			peakMB = r.MBPerSec
			peakName = r.Name
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(results)))
	sb.WriteString(fmt.Sprintf("- **Operations covered**: %d\n", len(operations)))
	if len(results) > 0 {
		sb.WriteString(
			fmt.Sprintf(
				"- **Zero Go-heap allocations**: %d of %d (%.1f%%)\n",
				zeroAlloc,
				len(results),
				float64(zeroAlloc)/float64(len(results))*100,
			),
		)
	}
	if peakMB > 0 {
		sb.WriteString(fmt.Sprintf("- **Peak throughput**: %.1f MB/s (%s)\n", peakMB, peakName))
	}
	sb.WriteString("\n")

	// Per-operation tables
	sb.WriteString("## Results by Operation\n\n")

	for _, op := range operations {
		rows := grouped[op]
		sort.SliceStable(rows, func(i, j int) bool {
			bi := sizeClassBytes(rows[i].SizeClass)
			bj := sizeClassBytes(rows[j].SizeClass)
			if bi != bj {
				return bi < bj
			}
			return rows[i].SizeClass < rows[j].SizeClass
		})

		sb.WriteString(fmt.Sprintf("### %s\n\n", op))
		sb.WriteString("| Size | ns/op | MB/s | B/op | allocs/op |\n")
		sb.WriteString("|------|-------|------|------|-----------|\n")

		for _, r := range rows {
			size := r.SizeClass
			if size == "" {
				size = "-"
			}

			throughput := "-"
			if r.MBPerSec > 0 {
				throughput = fmt.Sprintf("%.1f", r.MBPerSec)
			}

			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				size,
				formatNumber(r.NsPerOp),
				throughput,
				formatBytes(r.BytesPerOp),
				formatNumber(float64(r.AllocsPerOp)),
			))
		}

		sb.WriteString("\n")
	}

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **ns/op**: Wall time per operation, lower is better\n")
	sb.WriteString("- **MB/s**: Payload throughput, only reported for sized benchmarks\n")
	sb.WriteString("- **B/op and allocs/op**: Go heap traffic per operation; the arena-backed paths should report 0\n")

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
