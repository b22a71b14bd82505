package pipeline

import "sync"

// frameSlot is the single mutable cell shared between the capture context
// and the render loop. It holds at most one "latest frame" reference.
//
// Critical sections are swap-duration only: publish replaces a pointer,
// latest reads one. Readers never block writers (and vice versa) for
// longer than that. A frame replaced before any reader took it counts as
// an overwrite, the latest-wins drop this design accepts by contract.
type frameSlot struct {
	mu         sync.Mutex
	frame      *Frame
	lastTaken  uint64 // highest Seq any reader has taken via latest()
	published  uint64
	overwrites uint64 // publishes that replaced a never-taken frame
}

// publish installs f as the latest frame, replacing (never queuing behind)
// the previous occupant. f must be complete and immutable before the call;
// the pointer swap is the atomic publication point.
func (s *frameSlot) publish(f *Frame) {
	s.mu.Lock()
	if s.frame != nil && s.frame.Seq > s.lastTaken {
		s.overwrites++
	}
	s.frame = f
	s.published++
	s.mu.Unlock()
}

// latest returns the current slot contents without consuming them.
// Returns nil if no frame has ever been published. Never blocks beyond
// the pointer swap.
func (s *frameSlot) latest() *Frame {
	s.mu.Lock()
	f := s.frame
	if f != nil && f.Seq > s.lastTaken {
		s.lastTaken = f.Seq
	}
	s.mu.Unlock()
	return f
}

// hasNew reports whether the slot holds a frame whose sequence number
// differs from lastSeq. Non-destructive peek.
func (s *frameSlot) hasNew(lastSeq uint64) bool {
	s.mu.Lock()
	ok := s.frame != nil && s.frame.Seq != lastSeq
	s.mu.Unlock()
	return ok
}

// counters returns publish/overwrite totals for telemetry.
func (s *frameSlot) counters() (published, overwrites uint64) {
	s.mu.Lock()
	published, overwrites = s.published, s.overwrites
	s.mu.Unlock()
	return published, overwrites
}

// reset clears the slot for a new session.
func (s *frameSlot) reset() {
	s.mu.Lock()
	s.frame = nil
	s.lastTaken = 0
	s.published = 0
	s.overwrites = 0
	s.mu.Unlock()
}
