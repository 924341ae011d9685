package heap

import "errors"

var (
	// ErrNoSpace indicates that no free block was large enough and the arena could not extend.
	ErrNoSpace = errors.New("heap: out of memory")

	// ErrBadRef indicates a handle that does not denote a live block of this heap.
	ErrBadRef = errors.New("heap: bad block handle")

	// ErrBadSize indicates a negative size or element count.
	ErrBadSize = errors.New("heap: negative size")

	// ErrCorrupt indicates the block directory failed verification.
	ErrCorrupt = errors.New("heap: corrupt block directory")

	// ErrNoSource indicates New was called without an arena source.
	ErrNoSource = errors.New("heap: nil arena source")

	// ErrSourceNotEmpty indicates the arena source had already granted memory.
	ErrSourceNotEmpty = errors.New("heap: arena source already granted")
)
