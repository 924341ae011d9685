//go:build !linux && !darwin

package arena

// fallbackReserve caps the slice-backed fallback. Unlike the mmap
// reservation it is committed memory, so the cap stays modest.
const fallbackReserve = 1 << 26

// System returns the platform's preferred source. Without an mmap
// reservation this is a bounded slice; reserve values above the
// fallback cap are honored as given.
func System(reserve int) (Source, error) {
	if reserve <= 0 {
		reserve = fallbackReserve
	}
	return NewFixed(reserve)
}
