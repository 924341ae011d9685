package main

import (
	"testing"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name        string
		shared      bool
		workers     int
		wantJSON    bool
		wantContain []string
	}{
		{
			name:        "private heaps",
			workers:     2,
			wantContain: []string{"Completed", "private mode", "allocs:"},
		},
		{
			name:        "shared heap",
			shared:      true,
			workers:     3,
			wantContain: []string{"Completed", "shared mode"},
		},
		{
			name:        "json report",
			workers:     2,
			wantJSON:    true,
			wantContain: []string{"\"TotalOps\"", "\"Results\""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = false
			jsonOut = tt.wantJSON
			runOps = 300
			runWorkers = tt.workers
			runMaxSize = 512
			runSeed = 7
			runLive = 16
			runShared = tt.shared
			runReserve = 0
			runMetricsAddr = ""
			runVerifyEvery = 50

			output, err := captureOutput(t, runRun)
			if err != nil {
				t.Fatalf("runRun() error = %v", err)
			}

			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestRunCommandRejectsBadFlags(t *testing.T) {
	quiet = true
	jsonOut = false
	runOps = 0
	runWorkers = 2
	runMaxSize = 512
	runSeed = 1
	runLive = 16
	runShared = false
	runMetricsAddr = ""

	if _, err := captureOutput(t, runRun); err == nil {
		t.Error("runRun() should reject a zero operation count")
	}
}
