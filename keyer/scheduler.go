package keyer

import (
	"sync"
	"time"

	"github.com/sidekey-app/sidekey/config"
)

// TransitionFunc receives key line transitions. It is called with the
// scheduler's lock held, in strict event order, so oscillator keying and
// decoder input never disagree about what was sent. It must not call back
// into the scheduler.
type TransitionFunc func(down bool, at time.Time)

// Scheduler owns the real-time side of keying: it drives a Machine from
// paddle events, times element marks and spaces, and emits the combined
// key line (manual contact OR timed element mark) as transitions.
type Scheduler struct {
	mu      sync.Mutex
	machine *Machine
	onKey   TransitionFunc

	timing Timing

	elem     Element // element in progress
	inMark   bool
	spaceDur time.Duration // trailing space of the current element, fixed at start
	manual   bool
	lineDown bool

	timer  *time.Timer
	gen    uint64 // invalidates callbacks from cancelled timers
	closed bool
}

// NewScheduler returns a scheduler in the given mode. onKey must be non-nil.
func NewScheduler(mode config.KeyerMode, swap bool, timing Timing, onKey TransitionFunc) *Scheduler {
	return &Scheduler{
		machine: NewMachine(mode, swap),
		timing:  timing,
		onKey:   onKey,
	}
}

// Press reports a paddle contact closing.
func (s *Scheduler) Press(p Paddle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.apply(s.machine.Press(p))
}

// Release reports a paddle contact opening.
func (s *Scheduler) Release(p Paddle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.apply(s.machine.Release(p))
}

// ReleaseAll opens both contacts, e.g. when the input source disconnects.
func (s *Scheduler) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.apply(s.machine.Release(PaddleDit))
	s.apply(s.machine.Release(PaddleDah))
}

// SetTiming updates the speed parameters. The change takes effect at the
// next element start; an element already sounding is not recomputed.
func (s *Scheduler) SetTiming(t Timing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timing = t
}

// SetMode switches the keying mode, aborting any in-progress element and
// forgetting all paddle state.
func (s *Scheduler) SetMode(mode config.KeyerMode, swap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelTimer()
	s.machine.Reset(mode, swap)
	s.elem = ElementNone
	s.inMark = false
	s.manual = false
	s.updateLine()
}

// Close stops the scheduler. The key line is forced up if it was down.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelTimer()
	s.elem = ElementNone
	s.inMark = false
	s.manual = false
	s.updateLine()
	s.closed = true
}

func (s *Scheduler) cancelTimer() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) apply(out Output) {
	switch out.Key {
	case KeyDown:
		s.manual = true
	case KeyUp:
		s.manual = false
	}
	if out.Start != ElementNone && s.elem == ElementNone {
		s.startElement(out.Start)
		return
	}
	s.updateLine()
}

// startElement begins a timed element. Durations are snapshotted from the
// current timing here; this is the element boundary for parameter changes.
func (s *Scheduler) startElement(e Element) {
	s.elem = e
	s.inMark = true
	s.spaceDur = s.timing.Space()
	s.updateLine()
	s.schedule(s.timing.Mark(e), s.markDone)
}

func (s *Scheduler) markDone() {
	s.inMark = false
	s.updateLine()
	s.schedule(s.spaceDur, s.elementBoundary)
}

func (s *Scheduler) elementBoundary() {
	s.elem = ElementNone
	out := s.machine.ElementDone()
	if out.Start != ElementNone {
		s.startElement(out.Start)
	}
}

func (s *Scheduler) schedule(d time.Duration, fn func()) {
	s.gen++
	g := s.gen
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || g != s.gen {
			return
		}
		fn()
	})
}

func (s *Scheduler) updateLine() {
	down := s.manual || (s.elem != ElementNone && s.inMark)
	if down == s.lineDown {
		return
	}
	s.lineDown = down
	s.onKey(down, time.Now())
}
