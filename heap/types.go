package heap

import "github.com/joshuapare/heapkit/heap/trace"

// Ptr is an opaque allocation handle: the payload's byte offset from
// the arena base. The zero value means "no allocation"; payloads always
// start at least one padded header into the arena, so offset zero is
// never a live payload.
type Ptr uint64

// Recorder is a type alias for the canonical interface defined in
// heap/trace. The alias saves integrators a second import when wiring
// an observer into New.
type Recorder = trace.Recorder
