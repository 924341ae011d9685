package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerOfRoundTrips(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	for _, size := range []int{16, 64, 200} {
		p, buf := mustMalloc(t, h, size)
		assert.Equal(t, p, h.PointerOf(buf), "PointerOf should invert Malloc for size %d", size)
	}
}

func TestPointerOfRejectsForeignSlices(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)
	mustMalloc(t, h, 64)

	assert.Zero(t, h.PointerOf(nil))
	assert.Zero(t, h.PointerOf([]byte{}))
	assert.Zero(t, h.PointerOf(make([]byte, 32)), "slices outside the arena have no handle")
}

func TestPointerOfRejectsInteriorSlices(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	_, buf, err := h.Calloc(1, 128) // zeroed payload keeps the probe deterministic
	require.NoError(t, err)
	mustMalloc(t, h, 64)

	assert.Zero(t, h.PointerOf(buf[8:]), "misaligned interior slice")
	assert.Zero(t, h.PointerOf(buf[16:]), "aligned interior slice is still not a payload start")
}

func TestPointerOfSurvivesArenaGrowth(t *testing.T) {
	h := newTestHeapChunk(t, 1<<20, 256)

	p, buf := mustMalloc(t, h, 128)
	for i := 0; i < 16; i++ {
		mustMalloc(t, h, 4096) // force repeated grants
	}
	assert.Equal(t, p, h.PointerOf(buf), "handles must stay valid across growth")
}
