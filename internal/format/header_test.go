package format

import "testing"

func TestBlockHeaderFields(t *testing.T) {
	buf := make([]byte, 256)
	const off = uint64(64)

	WriteBlock(buf, off, 128, NilOffset, 16, false)

	if got := BlockSize(buf, off); got != 128 {
		t.Fatalf("size = %d", got)
	}
	if got := BlockNext(buf, off); got != NilOffset {
		t.Fatalf("next = %#x", got)
	}
	if got := BlockPrev(buf, off); got != 16 {
		t.Fatalf("prev = %d", got)
	}
	if BlockIsFree(buf, off) {
		t.Fatalf("new block marked free")
	}
	if got := BlockState(buf, off); got != BlockInUse {
		t.Fatalf("state = %d", got)
	}

	SetBlockFree(buf, off, true)
	if !BlockIsFree(buf, off) {
		t.Fatalf("block not free after SetBlockFree")
	}
	SetBlockSize(buf, off, 64)
	SetBlockNext(buf, off, 224)
	SetBlockPrev(buf, off, NilOffset)
	if BlockSize(buf, off) != 64 || BlockNext(buf, off) != 224 || BlockPrev(buf, off) != NilOffset {
		t.Fatalf("field update lost: size=%d next=%d prev=%#x",
			BlockSize(buf, off), BlockNext(buf, off), BlockPrev(buf, off))
	}
}

func TestBlockHeaderIsolation(t *testing.T) {
	// Writing one header must not disturb the bytes of its neighbors.
	buf := make([]byte, 128)
	for i := range buf {
		buf[i] = 0xAA
	}
	WriteBlock(buf, 32, 16, NilOffset, NilOffset, true)
	for i := 0; i < 32; i++ {
		if buf[i] != 0xAA {
			t.Fatalf("byte %d before header clobbered", i)
		}
	}
	for i := 32 + BlockHeaderSize; i < len(buf); i++ {
		if buf[i] != 0xAA {
			t.Fatalf("byte %d after header clobbered", i)
		}
	}
}

func TestPayloadHeaderRoundTrip(t *testing.T) {
	for _, off := range []uint64{0, 16, 4096, 1 << 32} {
		p := PayloadOffset(off)
		if p != off+PaddedHeaderSize {
			t.Fatalf("PayloadOffset(%d) = %d", off, p)
		}
		if got := HeaderOffset(p); got != off {
			t.Fatalf("HeaderOffset(PayloadOffset(%d)) = %d", off, got)
		}
	}
}
