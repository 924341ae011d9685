package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReallocNilAllocates(t *testing.T) {
	h := newTestHeap(t, 1<<20)

	p, buf, err := h.Realloc(0, 100)
	require.NoError(t, err)
	require.NotZero(t, p)
	assert.Len(t, buf, 112)
	assertVerify(t, h)
}

func TestReallocZeroSizeFrees(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, _ := mustMalloc(t, h, 64)
	mustMalloc(t, h, 64) // guard

	q, buf, err := h.Realloc(p, 0)
	require.NoError(t, err)
	assert.Zero(t, q, "zero-size resize should return the zero handle")
	assert.Nil(t, buf)

	// The hole must be reusable.
	r, _ := mustMalloc(t, h, 64)
	assert.Equal(t, p, r)
	assertVerify(t, h)
}

func TestReallocShrinkSplitsTail(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, buf := mustMalloc(t, h, 256)
	fill(buf, 0x41)
	mustMalloc(t, h, 64) // guard keeps the remnant isolated

	q, small, err := h.Realloc(p, 64)
	require.NoError(t, err)
	assert.Equal(t, p, q, "shrinking must not move the block")
	require.Len(t, small, 64)
	assert.True(t, filled(small, 0x41), "shrunk payload must keep its prefix")

	// 256 - 64 - 32 = 160 usable bytes carved off behind the block.
	blocks := h.Blocks()
	require.GreaterOrEqual(t, len(blocks), 2)
	assert.Equal(t, BlockInfo{Off: 0, Size: 64, Free: false}, blocks[0])
	assert.Equal(t, BlockInfo{Off: 96, Size: 160, Free: true}, blocks[1])
	assertVerify(t, h)
}

func TestReallocShrinkRemnantMergesForward(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	// One block followed directly by the free tail.
	p, _ := mustMalloc(t, h, 928)
	require.Len(t, h.Blocks(), 2)

	_, _, err := h.Realloc(p, 64)
	require.NoError(t, err)

	// The carved remnant borders the free tail and must merge with it:
	// (928-64-32) + 32 + 32 = 896.
	blocks := h.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockInfo{Off: 0, Size: 64, Free: false}, blocks[0])
	assert.Equal(t, BlockInfo{Off: 96, Size: 896, Free: true}, blocks[1])
	assertVerify(t, h)
}

func TestReallocShrinkKeepsBlockWhenTailTooSmall(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, _ := mustMalloc(t, h, 64)
	mustMalloc(t, h, 64) // guard

	q, buf, err := h.Realloc(p, 48)
	require.NoError(t, err)
	assert.Equal(t, p, q)
	assert.Len(t, buf, 64, "surplus below the split threshold stays with the block")
	assert.Equal(t, 64, h.Blocks()[0].Size)
	assertVerify(t, h)
}

func TestReallocGrowsIntoFreeSuccessor(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	a, buf := mustMalloc(t, h, 64)
	b, _ := mustMalloc(t, h, 64)
	mustMalloc(t, h, 64) // guard
	fill(buf, 0x7)
	h.Free(b)

	q, wide, err := h.Realloc(a, 128)
	require.NoError(t, err)
	assert.Equal(t, a, q, "growth into the successor must not move the block")
	// 64 + 32 + 64 merged, surplus 32 below the split threshold.
	assert.Len(t, wide, 160)
	assert.True(t, filled(wide[:64], 0x7), "payload prefix must survive in-place growth")

	assert.Equal(t, BlockInfo{Off: 0, Size: 160, Free: false}, h.Blocks()[0])
	assertVerify(t, h)
}

func TestReallocGrowInPlaceResplitsSurplus(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	a, _ := mustMalloc(t, h, 64)
	b, _ := mustMalloc(t, h, 256)
	mustMalloc(t, h, 64) // guard
	h.Free(b)

	q, wide, err := h.Realloc(a, 96)
	require.NoError(t, err)
	assert.Equal(t, a, q)
	assert.Len(t, wide, 96, "merged surplus above the threshold should be split back off")

	// Merged 64+32+256 = 352; trimmed to 96 leaves 352-96-32 = 224 free.
	blocks := h.Blocks()
	assert.Equal(t, BlockInfo{Off: 0, Size: 96, Free: false}, blocks[0])
	assert.Equal(t, BlockInfo{Off: 128, Size: 224, Free: true}, blocks[1])
	assertVerify(t, h)
}

func TestReallocRelocatesWhenBlocked(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	a, buf := mustMalloc(t, h, 64)
	mustMalloc(t, h, 64) // live successor forces relocation
	fill(buf, 0x2A)

	q, wide, err := h.Realloc(a, 512)
	require.NoError(t, err)
	assert.NotEqual(t, a, q, "blocked growth must move the allocation")
	require.Len(t, wide, 512)
	assert.True(t, filled(wide[:64], 0x2A), "payload prefix must be copied on relocation")

	// The old block is free again.
	blocks := h.Blocks()
	assert.Equal(t, BlockInfo{Off: 0, Size: 64, Free: true}, blocks[0])
	assertVerify(t, h)
}

func TestReallocFailureLeavesOriginalIntact(t *testing.T) {
	// No room to relocate: arena capacity equals the bootstrap grant.
	h := newTestHeapChunk(t, 1024, 1024)

	a, buf := mustMalloc(t, h, 64)
	mustMalloc(t, h, 896) // consume the rest
	fill(buf, 0x33)
	before := h.Blocks()

	_, _, err := h.Realloc(a, 512)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, before, h.Blocks(), "failed resize must not disturb the directory")
	assert.True(t, filled(buf, 0x33), "failed resize must leave the payload untouched")
	assertVerify(t, h)
}

func TestReallocRejectsUnknownHandles(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, _ := mustMalloc(t, h, 64)
	h.Free(p)

	_, _, err := h.Realloc(p, 128)
	assert.ErrorIs(t, err, ErrBadRef, "resizing a freed block is refused")

	_, _, err = h.Realloc(Ptr(8), 128)
	assert.ErrorIs(t, err, ErrBadRef)

	_, _, err = h.Realloc(Ptr(1<<40), 128)
	assert.ErrorIs(t, err, ErrBadRef)
}

func TestReallocNegativeSize(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, _ := mustMalloc(t, h, 64)
	_, _, err := h.Realloc(p, -1)
	assert.ErrorIs(t, err, ErrBadSize)
}

func TestReallocSameSizeIsStable(t *testing.T) {
	h := newTestHeapChunk(t, 1<<16, 1024)

	p, buf := mustMalloc(t, h, 128)
	fill(buf, 0x11)

	q, same, err := h.Realloc(p, 128)
	require.NoError(t, err)
	assert.Equal(t, p, q)
	assert.Len(t, same, 128)
	assert.True(t, filled(same, 0x11))
	assertVerify(t, h)
}
