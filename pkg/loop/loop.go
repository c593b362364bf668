// Package loop provides the single logical event loop that every stream,
// agent and timer callback runs on.
//
// Streams and agents are NOT thread-safe. Producers living on other
// goroutines (network callbacks, OS timers) must hop onto the loop with
// [Scheduler.Post] before touching a stream:
//
//	go func() {
//	    msg := <-incoming
//	    lp.Post(func() {
//	        subject.Next(msg) // safe: runs on the loop goroutine
//	    })
//	}()
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
)

// Clock provides time to a scheduler. Tests inject a fake clock to control
// timing deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Timer is a pending callback armed with [Scheduler.AfterFunc].
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Scheduler runs callbacks on one logical thread.
//
// Post and AfterFunc never run fn synchronously, even with a zero delay:
// fn always runs on a later turn of the loop.
type Scheduler interface {
	Now() time.Time
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is the production Scheduler. Callbacks run one at a time on the
// goroutine that called Run.
type Loop struct {
	clock  Clock
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces the wall clock returned by Now.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// New creates a Loop. Nothing runs until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock: realClock{},
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns the process-wide loop used by components created without
// an explicit scheduler. Someone must call Run on it.
func Default() *Loop {
	defaultOnce.Do(func() { defaultLoop = New() })
	return defaultLoop
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// Post queues fn to run on the loop. Safe to call from any goroutine,
// including from within a callback already running on the loop.
// Posts after Run has returned are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc arms fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped || t.fired {
				return
			}
			t.fired = true
			fn()
		})
	})
	return t
}

// Run processes callbacks until ctx is done. A panicking callback is
// reported through the error handler and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
	}()
	for {
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.run(fn)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) run(fn func()) {
	defer errors.Recover("loop.Run")
	fn()
}

// loopTimer flags are only read and written on the loop goroutine.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
