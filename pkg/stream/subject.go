package stream

import "slices"

// Subject is a hot stream that multicasts whatever is pushed into it to
// its current subscribers. Subscribers that arrive after termination
// receive the terminal notification immediately.
//
// Subject is NOT thread-safe. Push from the loop goroutine only.
type Subject[T any] struct {
	subscribers []*Subscriber[T]
	stopped     bool
	err         error
	stream      *Stream[T]
}

var _ Source = (*Subject[int])(nil)

// NewSubject creates an empty Subject.
func NewSubject[T any]() *Subject[T] {
	s := &Subject[T]{}
	s.stream = New(s.attach)
	return s
}

func (s *Subject[T]) attach(sub *Subscriber[T]) {
	if s.stopped {
		if s.err != nil {
			sub.Error(s.err)
		} else {
			sub.Complete()
		}
		return
	}
	s.subscribers = append(s.subscribers, sub)
	sub.Add(func() {
		if i := slices.Index(s.subscribers, sub); i >= 0 {
			s.subscribers = slices.Delete(s.subscribers, i, i+1)
		}
	})
}

// Next pushes v to every current subscriber.
func (s *Subject[T]) Next(v T) {
	if s.stopped {
		return
	}
	for _, sub := range slices.Clone(s.subscribers) {
		sub.Next(v)
	}
}

// Error terminates every subscriber with err.
func (s *Subject[T]) Error(err error) {
	if s.stopped {
		return
	}
	s.stopped, s.err = true, err
	subs := s.subscribers
	s.subscribers = nil
	for _, sub := range subs {
		sub.Error(err)
	}
}

// Complete terminates every subscriber normally.
func (s *Subject[T]) Complete() {
	if s.stopped {
		return
	}
	s.stopped = true
	subs := s.subscribers
	s.subscribers = nil
	for _, sub := range subs {
		sub.Complete()
	}
}

// Stream returns the subscribe side of the subject.
func (s *Subject[T]) Stream() *Stream[T] { return s.stream }

// Subscribe is shorthand for s.Stream().Subscribe(o).
func (s *Subject[T]) Subscribe(o Observer[T]) *Subscription {
	return s.stream.Subscribe(o)
}

// SubscribeAny subscribes with an untyped observer.
func (s *Subject[T]) SubscribeAny(o Observer[any]) *Subscription {
	return s.stream.SubscribeAny(o)
}

// Observed returns the number of live subscribers.
func (s *Subject[T]) Observed() int { return len(s.subscribers) }

// BehaviorSubject is a Subject that remembers its latest value and emits it
// to every new subscriber.
type BehaviorSubject[T any] struct {
	*Subject[T]
	value T
}

// NewBehaviorSubject creates a BehaviorSubject holding initial.
func NewBehaviorSubject[T any](initial T) *BehaviorSubject[T] {
	b := &BehaviorSubject[T]{Subject: &Subject[T]{}, value: initial}
	b.stream = New(func(sub *Subscriber[T]) {
		if !b.stopped {
			sub.Next(b.value)
		}
		b.attach(sub)
	})
	return b
}

// Next stores v and pushes it to every subscriber.
func (b *BehaviorSubject[T]) Next(v T) {
	if b.stopped {
		return
	}
	b.value = v
	b.Subject.Next(v)
}

// Value returns the latest value.
func (b *BehaviorSubject[T]) Value() T { return b.value }
