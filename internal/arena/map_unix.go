//go:build linux || darwin

package arena

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map is the mmap-backed source: one anonymous private reservation
// whose pages are committed as the granted extent advances. Reserving
// the whole range up front is what lets the region grow in place, the
// same way a program break extension keeps earlier addresses valid.
type Map struct {
	region    []byte // full reservation, PROT_NONE beyond committed
	granted   int    // bytes handed out through Extend
	committed int    // page-aligned bytes with read/write protection
	pageSize  int
	closed    bool
}

// NewMap reserves capacity bytes of address space. No physical memory
// is committed until the first Extend.
func NewMap(capacity int) (*Map, error) {
	if capacity <= 0 {
		return nil, ErrBadSize
	}
	region, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", capacity, err)
	}
	return &Map{region: region, pageSize: os.Getpagesize()}, nil
}

// Bytes returns the granted region.
func (m *Map) Bytes() []byte {
	return m.region[:m.granted]
}

// Extend commits enough pages to cover n more bytes and returns the
// grown window. The base address never changes.
func (m *Map) Extend(n int) ([]byte, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, ErrBadSize
	}
	if n > len(m.region)-m.granted {
		return nil, ErrNoMemory
	}
	need := m.granted + n
	if need > m.committed {
		commit := alignPage(need, m.pageSize)
		if commit > len(m.region) {
			commit = len(m.region)
		}
		if err := unix.Mprotect(m.region[m.committed:commit], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return nil, fmt.Errorf("arena: commit %d bytes: %w", commit-m.committed, err)
		}
		m.committed = commit
	}
	m.granted = need
	return m.region[:m.granted], nil
}

// Close unmaps the reservation. Double close is a no-op.
func (m *Map) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	region := m.region
	m.region = nil
	m.granted = 0
	m.committed = 0
	return unix.Munmap(region)
}

func alignPage(n, page int) int {
	return (n + page - 1) &^ (page - 1)
}
