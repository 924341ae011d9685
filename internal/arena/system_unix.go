//go:build linux || darwin

package arena

// System returns the platform's preferred source: an mmap reservation
// of the given size, or DefaultReserve when reserve is zero or
// negative.
func System(reserve int) (Source, error) {
	if reserve <= 0 {
		reserve = DefaultReserve
	}
	return NewMap(reserve)
}
