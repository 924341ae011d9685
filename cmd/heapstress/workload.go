package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/joshuapare/heapkit/heap"
)

// workloadConfig drives one deterministic allocation workload. The same
// seed always produces the same operation sequence.
type workloadConfig struct {
	Ops         int
	MaxSize     int
	MaxLive     int
	Seed        int64
	VerifyEvery int
	// Drain releases every surviving block once the operations finish.
	Drain bool
}

// workloadResult summarizes one workload run. Stats is the heap
// snapshot taken as the workload ended; for a shared heap it reflects
// whatever the other workers were doing at that moment.
type workloadResult struct {
	Worker   int
	Ops      int
	Allocs   int
	Frees    int
	Resizes  int
	Failures int
	PeakLive int
	Stats    heap.Stats
}

// nopLocker stands in for a real mutex when a worker owns its heap.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// liveBlock is one allocation the workload still owns, with the fill
// pattern it expects to find there. known is the prefix guaranteed to
// carry the pattern; a resize preserves at least min(known, new size).
type liveBlock struct {
	ptr   heap.Ptr
	buf   []byte
	seed  byte
	known int
}

func fillPattern(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func checkPattern(b []byte, seed byte) bool {
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}

// runWorkload hammers h with a seeded mix of allocate, release, resize,
// and zero-allocate calls, holding at most cfg.MaxLive blocks at once.
// Every heap call runs under lock, so sharing a heap means handing all
// its workers the same mutex; nil means no locking. Allocation refusals
// are counted, not fatal; the returned error reports the first
// invariant violation.
func runWorkload(h *heap.Heap, lock sync.Locker, cfg workloadConfig) (workloadResult, error) {
	if lock == nil {
		lock = nopLocker{}
	}
	r := rand.New(rand.NewSource(cfg.Seed))

	var (
		res  workloadResult
		live []*liveBlock
		seed byte
	)
	nextSeed := func() byte {
		seed += 7
		if seed == 0 {
			seed = 7
		}
		return seed
	}
	remove := func(i int) {
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for op := 0; op < cfg.Ops; op++ {
		res.Ops++
		pick := r.Intn(100)
		if len(live) >= cfg.MaxLive && (pick < 35 || (pick >= 85 && pick < 97)) {
			pick = 40 // full house, release instead
		}

		lock.Lock()
		err := func() error {
			switch {
			case pick < 35 || len(live) == 0: // allocate
				size := 1 + r.Intn(cfg.MaxSize)
				ptr, buf, err := h.Malloc(size)
				if err != nil {
					res.Failures++
					return nil
				}
				if uint64(ptr)%16 != 0 || len(buf) < size {
					return fmt.Errorf("op %d: malloc(%d) returned handle %#x with %d bytes", op, size, ptr, len(buf))
				}
				s := nextSeed()
				fillPattern(buf, s)
				live = append(live, &liveBlock{ptr: ptr, buf: buf, seed: s, known: len(buf)})
				res.Allocs++

			case pick < 60: // release
				i := r.Intn(len(live))
				blk := live[i]
				if !checkPattern(blk.buf[:blk.known], blk.seed) {
					return fmt.Errorf("op %d: payload at %#x clobbered before release", op, blk.ptr)
				}
				h.Free(blk.ptr)
				remove(i)
				res.Frees++

			case pick < 85: // resize
				i := r.Intn(len(live))
				blk := live[i]
				size := r.Intn(2 * cfg.MaxSize)
				ptr, buf, err := h.Realloc(blk.ptr, size)
				if err != nil {
					res.Failures++
					if !checkPattern(blk.buf[:blk.known], blk.seed) {
						return fmt.Errorf("op %d: refused resize clobbered payload at %#x", op, blk.ptr)
					}
					return nil
				}
				res.Resizes++
				if size == 0 {
					remove(i)
					return nil
				}
				kept := blk.known
				if size < kept {
					kept = size
				}
				if !checkPattern(buf[:kept], blk.seed) {
					return fmt.Errorf("op %d: resize %#x -> %#x lost the first %d bytes", op, blk.ptr, ptr, kept)
				}
				s := nextSeed()
				fillPattern(buf, s)
				live[i] = &liveBlock{ptr: ptr, buf: buf, seed: s, known: len(buf)}

			case pick < 97: // zero-allocate
				count := 1 + r.Intn(8)
				unit := 1 + r.Intn(max(1, cfg.MaxSize/8))
				ptr, buf, err := h.Calloc(count, unit)
				if err != nil {
					res.Failures++
					return nil
				}
				for j := range buf {
					if buf[j] != 0 {
						return fmt.Errorf("op %d: calloc(%d, %d) byte %d not zeroed", op, count, unit, j)
					}
				}
				s := nextSeed()
				fillPattern(buf, s)
				live = append(live, &liveBlock{ptr: ptr, buf: buf, seed: s, known: len(buf)})
				res.Allocs++

			default: // handle round-trip
				blk := live[r.Intn(len(live))]
				if got := h.PointerOf(blk.buf); got != blk.ptr {
					return fmt.Errorf("op %d: handle round-trip gave %#x, want %#x", op, got, blk.ptr)
				}
			}

			if len(live) > res.PeakLive {
				res.PeakLive = len(live)
			}
			if cfg.VerifyEvery > 0 && op%cfg.VerifyEvery == 0 {
				if err := h.Verify(); err != nil {
					return fmt.Errorf("op %d: %w", op, err)
				}
			}
			return nil
		}()
		lock.Unlock()
		if err != nil {
			return res, err
		}
	}

	if cfg.Drain {
		for len(live) > 0 {
			i := r.Intn(len(live))
			blk := live[i]
			lock.Lock()
			ok := checkPattern(blk.buf[:blk.known], blk.seed)
			h.Free(blk.ptr)
			lock.Unlock()
			if !ok {
				return res, fmt.Errorf("drain: payload at %#x clobbered", blk.ptr)
			}
			remove(i)
			res.Frees++
		}
	}

	lock.Lock()
	verr := h.Verify()
	res.Stats = h.Stats()
	lock.Unlock()
	if verr != nil {
		return res, verr
	}
	return res, nil
}

// checkDrained reports whether a fully drained heap collapsed back to a
// single free block. Only meaningful for a heap no other worker holds
// allocations in.
func checkDrained(h *heap.Heap) error {
	blocks := h.Blocks()
	if len(blocks) == 1 && blocks[0].Free {
		return nil
	}
	return errors.New("drained heap did not collapse to a single free block")
}
