package testing

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/loop"
)

// Scheduler is a manual loop.Scheduler for deterministic tests. Nothing runs
// until Flush or Advance is called, so "deferred to the next tick" is
// observable: a zero-delay timer is pending until the test flushes.
type Scheduler struct {
	clock *FakeClock

	mu    sync.Mutex
	tasks []*task
	seq   uint64
	ran   int
}

var _ loop.Scheduler = (*Scheduler)(nil)

type task struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
	owner   *Scheduler
}

func (t *task) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewScheduler returns a Scheduler driven by a fresh FakeClock.
func NewScheduler() *Scheduler {
	return &Scheduler{clock: NewFakeClock()}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() *FakeClock { return s.clock }

// Now returns the fake time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// Post queues fn for the current instant.
func (s *Scheduler) Post(fn func()) {
	s.AfterFunc(0, fn)
}

// AfterFunc arms fn to run once the clock reaches now+d.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) loop.Timer {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &task{at: s.clock.Now().Add(d), seq: s.seq, fn: fn, owner: s}
	s.tasks = append(s.tasks, t)
	return t
}

// Pending returns the number of armed, unfired, unstopped callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Ran returns the total number of callbacks run so far.
func (s *Scheduler) Ran() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran
}

// Flush runs every callback due at the current instant, including ones
// scheduled by callbacks during the flush. It returns how many ran.
func (s *Scheduler) Flush() int {
	return s.runUntil(s.clock.Now())
}

// Advance moves the clock forward by d, running due callbacks in time order
// with the clock set to each callback's due time. It returns how many ran.
func (s *Scheduler) Advance(d time.Duration) int {
	target := s.clock.Now().Add(d)
	n := s.runUntil(target)
	s.clock.Set(target)
	return n
}

func (s *Scheduler) runUntil(limit time.Time) int {
	n := 0
	for {
		t := s.nextDue(limit)
		if t == nil {
			return n
		}
		if t.at.After(s.clock.Now()) {
			s.clock.Set(t.at)
		}
		t.fn()
		n++
	}
}

func (s *Scheduler) nextDue(limit time.Time) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t *task) bool { return t.stopped || t.fired })
	if len(s.tasks) == 0 {
		return nil
	}
	slices.SortFunc(s.tasks, func(a, b *task) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	t := s.tasks[0]
	if t.at.After(limit) {
		return nil
	}
	t.fired = true
	s.ran++
	return t
}
