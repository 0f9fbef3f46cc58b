// Package scheduler debounces change notifications into commit attempts.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler holds at most one pending timer. Each Schedule call restarts the
// quiet period, so a burst of calls yields a single firing Delay after the
// last one. Firings are delivered on C as the workspace root.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	pending bool
	fired   chan string
}

// New returns a Scheduler with the given quiet period.
func New(delay time.Duration) *Scheduler {
	return &Scheduler{delay: delay, fired: make(chan string, 1)}
}

// C delivers the root of each firing. A firing is delivered at most once.
func (s *Scheduler) C() <-chan string {
	return s.fired
}

// SetDelay changes the quiet period used by later Schedule calls.
func (s *Scheduler) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Delay returns the current quiet period.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Schedule cancels any pending timer and arms a new one for root.
func (s *Scheduler) Schedule(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	gen := s.gen
	s.pending = true
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, root) })
}

// Cancel tears down any pending timer without firing it.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Pending reports whether a firing is armed or delivered but not yet received.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending || len(s.fired) > 0
}

// Done marks a received firing as handled. Receivers call it after taking a
// value from C so that Pending reflects the handle having been cleared.
func (s *Scheduler) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		s.pending = false
	}
}

func (s *Scheduler) fire(gen uint64, root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return // superseded by a later Schedule or Cancel
	}
	s.timer = nil
	select {
	case s.fired <- root:
	default:
	}
}

// stopLocked invalidates the current timer and drops an undelivered firing.
func (s *Scheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	select {
	case <-s.fired:
	default:
	}
	s.pending = false
}
