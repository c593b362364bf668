package stream

import (
	"github.com/go-drift/reactive/pkg/errors"
)

// Observer receives the notifications of one subscription. Any callback may
// be nil. After Error or Complete no further callback is invoked.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// NextFunc returns an Observer that only handles values.
func NextFunc[T any](fn func(T)) Observer[T] {
	return Observer[T]{Next: fn}
}

// Subscription is a handle to a live subscription and the teardown work
// attached to it. Teardowns run once, in reverse order of registration.
type Subscription struct {
	closed    bool
	teardowns []func()
}

// NewSubscription returns an open Subscription holding teardowns.
func NewSubscription(teardowns ...func()) *Subscription {
	return &Subscription{teardowns: teardowns}
}

// Add registers a teardown. If the subscription is already closed the
// teardown runs immediately.
func (s *Subscription) Add(teardown func()) {
	if teardown == nil {
		return
	}
	if s.closed {
		teardown()
		return
	}
	s.teardowns = append(s.teardowns, teardown)
}

// Unsubscribe closes the subscription and runs its teardowns (LIFO).
// Safe to call more than once and on a nil Subscription.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	teardowns := s.teardowns
	s.teardowns = nil
	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}

// Closed reports whether Unsubscribe has run.
func (s *Subscription) Closed() bool {
	return s == nil || s.closed
}

// Subscriber is the producer-side view of a subscription. Producers push
// through Next, Error and Complete and register cleanup with Add.
type Subscriber[T any] struct {
	*Subscription
	observer Observer[T]
	stopped  bool
}

// Next delivers v unless the subscriber has stopped or been unsubscribed.
func (s *Subscriber[T]) Next(v T) {
	if s.stopped || s.closed {
		return
	}
	if s.observer.Next != nil {
		s.observer.Next(v)
	}
}

// Error terminates the subscription with err and tears it down.
// An error reaching an observer without an Error callback is reported to
// the process error handler.
func (s *Subscriber[T]) Error(err error) {
	if s.stopped || s.closed {
		return
	}
	s.stopped = true
	defer s.Unsubscribe()
	if s.observer.Error != nil {
		s.observer.Error(err)
		return
	}
	errors.Report(&errors.ReactiveError{
		Op:   "stream.Subscribe",
		Kind: errors.KindResolution,
		Err:  err,
	})
}

// Complete terminates the subscription normally and tears it down.
func (s *Subscriber[T]) Complete() {
	if s.stopped || s.closed {
		return
	}
	s.stopped = true
	defer s.Unsubscribe()
	if s.observer.Complete != nil {
		s.observer.Complete()
	}
}

// Stream is a cold, push-based sequence of values. Every Subscribe runs the
// producer anew; use Share or ShareReplay to multicast one execution.
type Stream[T any] struct {
	producer func(*Subscriber[T])
}

// Source is implemented by every stream regardless of its element type, so
// a heterogeneous shape can carry streams of any type.
type Source interface {
	SubscribeAny(Observer[any]) *Subscription
}

var _ Source = (*Stream[int])(nil)

// New creates a Stream from a producer. The producer runs once per
// subscription, may emit synchronously, and registers its cleanup with
// Subscriber.Add.
func New[T any](producer func(*Subscriber[T])) *Stream[T] {
	return &Stream[T]{producer: producer}
}

// Subscribe starts the producer for o and returns the subscription handle.
func (s *Stream[T]) Subscribe(o Observer[T]) *Subscription {
	sub := &Subscriber[T]{Subscription: &Subscription{}, observer: o}
	s.producer(sub)
	return sub.Subscription
}

// SubscribeAny subscribes with an untyped observer.
func (s *Stream[T]) SubscribeAny(o Observer[any]) *Subscription {
	return s.Subscribe(Observer[T]{
		Next: func(v T) {
			if o.Next != nil {
				o.Next(v)
			}
		},
		Error:    o.Error,
		Complete: o.Complete,
	})
}

// Erase converts a typed stream into a stream of any.
func Erase[T any](src *Stream[T]) *Stream[any] {
	return Map(src, func(v T) any { return v })
}

// FromSource adapts any Source into a stream of any.
func FromSource(src Source) *Stream[any] {
	if s, ok := src.(*Stream[any]); ok {
		return s
	}
	return New(func(sub *Subscriber[any]) {
		forward(sub, src.SubscribeAny(Observer[any]{
			Next:     sub.Next,
			Error:    sub.Error,
			Complete: sub.Complete,
		}))
	})
}

// forward ties an upstream subscription's lifetime to sub.
func forward[T any](sub *Subscriber[T], upstream *Subscription) {
	sub.Add(upstream.Unsubscribe)
}

// pipe subscribes to src, handing values to next and forwarding
// termination to sub.
func pipe[T, R any](src *Stream[T], sub *Subscriber[R], next func(T)) {
	forward(sub, src.Subscribe(Observer[T]{
		Next:     next,
		Error:    sub.Error,
		Complete: sub.Complete,
	}))
}
