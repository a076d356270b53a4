package catch

import "time"

// TickHandle identifies a pending tick request. The zero handle is never
// issued.
type TickHandle uint64

// Scheduler abstracts the per-frame callback primitive of the host display.
type Scheduler interface {
	// RequestTick schedules fn to run once on the next frame.
	RequestTick(fn func(now time.Time)) TickHandle
	// CancelTick drops a pending request. Unknown handles are ignored.
	CancelTick(h TickHandle)
}

type pendingTick struct {
	handle TickHandle
	fn     func(now time.Time)
}

// FrameScheduler queues tick requests until its owner fires the next frame.
// Callbacks requested while a frame is firing wait for the following frame.
// It is not safe for concurrent use; the owning loop drives it.
type FrameScheduler struct {
	next    TickHandle
	pending []pendingTick

	// Handles of the batch currently firing that were cancelled by an
	// earlier callback in the same batch.
	firing    bool
	cancelled map[TickHandle]struct{}
}

// NewFrameScheduler creates an empty scheduler.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{cancelled: make(map[TickHandle]struct{})}
}

// RequestTick implements Scheduler.
func (s *FrameScheduler) RequestTick(fn func(now time.Time)) TickHandle {
	s.next++
	s.pending = append(s.pending, pendingTick{handle: s.next, fn: fn})
	return s.next
}

// CancelTick implements Scheduler.
func (s *FrameScheduler) CancelTick(h TickHandle) {
	if h == 0 {
		return
	}
	for i, p := range s.pending {
		if p.handle == h {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
	if s.firing {
		s.cancelled[h] = struct{}{}
	}
}

// Fire runs every callback pending at call time and returns how many ran.
func (s *FrameScheduler) Fire(now time.Time) int {
	if len(s.pending) == 0 {
		return 0
	}
	batch := s.pending
	s.pending = nil
	s.firing = true
	defer func() {
		s.firing = false
		clear(s.cancelled)
	}()

	ran := 0
	for _, p := range batch {
		if _, gone := s.cancelled[p.handle]; gone {
			continue
		}
		p.fn(now)
		ran++
	}
	return ran
}

// Pending returns the number of queued callbacks.
func (s *FrameScheduler) Pending() int {
	return len(s.pending)
}
