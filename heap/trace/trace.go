// Package trace defines the observation hook for allocator operations.
//
// The heap records one Event per completed public operation. Recorders
// are pluggable; the default stderr recorder is enabled process-wide by
// the HEAPKIT_TRACE environment variable, which is consulted exactly
// once.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnvVar names the environment flag that enables the default stderr
// recorder. Any non-empty value turns it on.
const EnvVar = "HEAPKIT_TRACE"

// Op identifies the public operation that produced an Event.
type Op uint8

const (
	OpMalloc Op = iota + 1
	OpFree
	OpCalloc
	OpRealloc
)

// String returns the operation name as it appears in trace lines.
func (o Op) String() string {
	switch o {
	case OpMalloc:
		return "malloc"
	case OpFree:
		return "free"
	case OpCalloc:
		return "calloc"
	case OpRealloc:
		return "realloc"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Event carries the normalized inputs and the outcome of one completed
// operation. Size is the aligned request; Granted is the usable size of
// the resulting block, which can exceed Size when a split was skipped.
type Event struct {
	Op      Op
	Count   int    // calloc element count, zero otherwise
	Unit    int    // calloc element size, zero otherwise
	Size    int    // aligned request bytes, zero for free
	OldPtr  uint64 // input handle for free and realloc, zero otherwise
	Ptr     uint64 // resulting payload offset, zero when none
	Granted int    // usable bytes of the resulting block, zero when none
}

// Recorder receives one event per completed operation.
//
// Recorders run inline on the allocating goroutine and must not call
// back into the heap; the allocator is not reentrant.
type Recorder interface {
	Record(Event)
}

var (
	enabledOnce sync.Once
	enabled     bool
)

// Enabled reports whether the process-wide trace flag is set. The
// environment is read once; the first answer holds for the life of the
// process.
func Enabled() bool {
	enabledOnce.Do(func() {
		enabled = os.Getenv(EnvVar) != ""
	})
	return enabled
}

// Default returns the stderr recorder when the trace flag is set, nil
// otherwise.
func Default() Recorder {
	if Enabled() {
		return NewWriter(os.Stderr)
	}
	return nil
}

// NewWriter returns a Recorder that writes one line per event.
func NewWriter(w io.Writer) Recorder {
	return &lineRecorder{w: w}
}

type lineRecorder struct {
	w io.Writer
}

func (r *lineRecorder) Record(ev Event) {
	switch ev.Op {
	case OpFree:
		fmt.Fprintf(r.w, "[HEAP] free(0x%x)\n", ev.OldPtr)
	case OpCalloc:
		fmt.Fprintf(r.w, "[HEAP] calloc(%d, %d) = 0x%x size=%d\n", ev.Count, ev.Unit, ev.Ptr, ev.Granted)
	case OpRealloc:
		fmt.Fprintf(r.w, "[HEAP] realloc(0x%x, %d) = 0x%x size=%d\n", ev.OldPtr, ev.Size, ev.Ptr, ev.Granted)
	default:
		fmt.Fprintf(r.w, "[HEAP] %s(%d) = 0x%x size=%d\n", ev.Op, ev.Size, ev.Ptr, ev.Granted)
	}
}
