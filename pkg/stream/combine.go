package stream

import "slices"

// CombineLatest joins an ordered list of streams into one stream of
// snapshots.
//
// The result never emits a partial snapshot: its first emission waits until
// every source has emitted at least once. After that it re-emits whenever
// any single source emits, substituting that source's value into the latest
// known values of the others. Every emission is a fresh slice the receiver
// may keep.
//
// With no sources it emits an empty slice synchronously and completes.
// It errors as soon as any source errors, and completes once every source
// has completed, or as soon as a source completes without ever emitting.
// Unsubscribing tears down every source.
func CombineLatest[T any](srcs []*Stream[T]) *Stream[[]T] {
	return New(func(sub *Subscriber[[]T]) {
		n := len(srcs)
		if n == 0 {
			sub.Next([]T{})
			sub.Complete()
			return
		}

		values := make([]T, n)
		seen := make([]bool, n)
		ready, completed := 0, 0

		for i, src := range srcs {
			if sub.Closed() {
				return
			}
			forward(sub, src.Subscribe(Observer[T]{
				Next: func(v T) {
					values[i] = v
					if !seen[i] {
						seen[i] = true
						ready++
					}
					if ready == n {
						sub.Next(slices.Clone(values))
					}
				},
				Error: sub.Error,
				Complete: func() {
					completed++
					if !seen[i] || completed == n {
						sub.Complete()
					}
				},
			}))
		}
	})
}
