/*
Package malloc is a C-flavored allocation surface over one process-wide
heap. It exists for code being ported from manual memory management:
the four classic calls keep their shapes, with nil slices standing in
for NULL.

# Quick Start

	buf := malloc.Malloc(256)
	if buf == nil {
	    log.Fatal(malloc.Err())
	}
	defer malloc.Free(buf)

	buf = malloc.Realloc(buf, 512)

# Ownership

Slices returned by Malloc, Calloc, and Realloc stay valid until passed
to Free or resized away by Realloc. The backing arena never moves, so
holding a slice across later allocations is safe. Free ignores nil and
any slice this package did not return; Realloc treats such slices as
errors and returns nil without touching the heap.

# Failure

Failed operations return nil. Err reports the most recent failure
reason and is never cleared, so a batch of calls can be checked once at
the end.

# Thread Safety

Not safe for concurrent use. The process-wide heap has no internal
locking; callers that share it across goroutines must serialize every
call in this package themselves.

# Tracing

The process-wide heap wires the environment-gated trace recorder: set
HEAPKIT_TRACE to any non-empty value before the first allocation and
every operation prints a one-line record to stderr.

For a private heap with its own arena, recorder, and tuning, use the
heap package directly.
*/
package malloc
