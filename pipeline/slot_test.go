package pipeline

import (
	"sync"
	"testing"
	"time"
)

func testFrame(seq uint64) *Frame {
	return &Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     640,
		Height:    480,
		Data:      []byte{0},
	}
}

func TestSlotEmpty(t *testing.T) {
	var s frameSlot

	if f := s.latest(); f != nil {
		t.Fatalf("latest() on empty slot = %v, want nil", f)
	}
	if s.hasNew(0) {
		t.Error("hasNew(0) on empty slot = true, want false")
	}
}

// TestSlotLatestWins validates the single-slot overwrite policy:
// publishing N frames without a read in between leaves exactly one
// observable frame - the last - never a queue of N.
func TestSlotLatestWins(t *testing.T) {
	var s frameSlot

	const n = 100
	for i := 1; i <= n; i++ {
		s.publish(testFrame(uint64(i)))
	}

	f := s.latest()
	if f == nil {
		t.Fatal("latest() = nil after publishing")
	}
	if f.Seq != n {
		t.Errorf("latest().Seq = %d, want %d", f.Seq, n)
	}

	published, overwrites := s.counters()
	if published != n {
		t.Errorf("published = %d, want %d", published, n)
	}
	// Every publish except the last replaced a never-taken frame
	if overwrites != n-1 {
		t.Errorf("overwrites = %d, want %d", overwrites, n-1)
	}
}

func TestSlotHasNewIsNonDestructive(t *testing.T) {
	var s frameSlot
	s.publish(testFrame(7))

	// Peeking does not consume: the answer only changes when the caller
	// advances its own observed sequence number
	for i := 0; i < 3; i++ {
		if !s.hasNew(0) {
			t.Fatal("hasNew(0) = false, want true")
		}
	}
	if s.hasNew(7) {
		t.Error("hasNew(7) = true after observing seq 7, want false")
	}
	if f := s.latest(); f == nil || f.Seq != 7 {
		t.Errorf("latest() = %v, want seq 7", f)
	}
}

// TestSlotMonotonicReads validates the ordering guarantee: a reader
// never observes a sequence number lower than one it already observed,
// no matter how reads interleave with publishes.
func TestSlotMonotonicReads(t *testing.T) {
	var s frameSlot

	const n = 5000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			s.publish(testFrame(uint64(i)))
		}
	}()

	var last uint64
	for {
		f := s.latest()
		if f != nil {
			if f.Seq < last {
				t.Errorf("observed seq %d after %d (went backwards)", f.Seq, last)
				break
			}
			last = f.Seq
		}
		if last == n {
			break
		}
	}
	wg.Wait()

	if last != n {
		t.Errorf("final observed seq = %d, want %d", last, n)
	}
}

func TestSlotReset(t *testing.T) {
	var s frameSlot
	s.publish(testFrame(1))
	s.publish(testFrame(2))
	s.reset()

	if f := s.latest(); f != nil {
		t.Errorf("latest() after reset = %v, want nil", f)
	}
	published, overwrites := s.counters()
	if published != 0 || overwrites != 0 {
		t.Errorf("counters after reset = (%d, %d), want (0, 0)", published, overwrites)
	}
}
