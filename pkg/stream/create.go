package stream

import (
	"github.com/go-drift/reactive/pkg/loop"
)

// Of emits vs synchronously, in order, then completes.
func Of[T any](vs ...T) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		for _, v := range vs {
			if sub.Closed() {
				return
			}
			sub.Next(v)
		}
		sub.Complete()
	})
}

// FromSlice emits the elements of vs, then completes.
func FromSlice[T any](vs []T) *Stream[T] {
	return Of(vs...)
}

// Empty completes immediately without emitting.
func Empty[T any]() *Stream[T] {
	return New(func(sub *Subscriber[T]) { sub.Complete() })
}

// Never neither emits nor terminates.
func Never[T any]() *Stream[T] {
	return New(func(*Subscriber[T]) {})
}

// Throw terminates immediately with err.
func Throw[T any](err error) *Stream[T] {
	return New(func(sub *Subscriber[T]) { sub.Error(err) })
}

// FromChan emits the values received from ch. A goroutine drains ch and
// hops every value onto sched; the stream completes when ch is closed.
// Unsubscribing stops delivery but does not close ch.
func FromChan[T any](sched loop.Scheduler, ch <-chan T) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		done := make(chan struct{})
		sub.Add(func() { close(done) })
		go func() {
			for {
				select {
				case <-done:
					return
				case v, ok := <-ch:
					if !ok {
						sched.Post(sub.Complete)
						return
					}
					sched.Post(func() { sub.Next(v) })
				}
			}
		}()
	})
}
