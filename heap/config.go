package heap

import "github.com/joshuapare/heapkit/internal/format"

// Config tunes heap construction. Pass nil to New for DefaultConfig.
type Config struct {
	// BootstrapChunk is the minimum size in bytes of the first arena
	// grant. Requests larger than it are granted exactly; the floor
	// exists so early small allocations share one extension call.
	// The value is rounded up to the alignment unit; values too small
	// to hold a padded header plus one payload unit fall back to the
	// default.
	BootstrapChunk int
}

// DefaultConfig is the standard configuration: a 64 KiB bootstrap grant.
var DefaultConfig = Config{
	BootstrapChunk: format.BootstrapChunk,
}
