package stream

// Map applies fn to every value.
func Map[T, R any](src *Stream[T], fn func(T) R) *Stream[R] {
	return New(func(sub *Subscriber[R]) {
		pipe(src, sub, func(v T) { sub.Next(fn(v)) })
	})
}

// Filter forwards only the values for which keep returns true.
func Filter[T any](src *Stream[T], keep func(T) bool) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		pipe(src, sub, func(v T) {
			if keep(v) {
				sub.Next(v)
			}
		})
	})
}

// Scan folds every value into an accumulator starting at seed and emits
// each intermediate accumulator.
func Scan[T, R any](src *Stream[T], seed R, fn func(acc R, v T) R) *Stream[R] {
	return New(func(sub *Subscriber[R]) {
		acc := seed
		pipe(src, sub, func(v T) {
			acc = fn(acc, v)
			sub.Next(acc)
		})
	})
}

// StartWith emits vs before the values of src.
func StartWith[T any](src *Stream[T], vs ...T) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		for _, v := range vs {
			if sub.Closed() {
				return
			}
			sub.Next(v)
		}
		if sub.Closed() {
			return
		}
		pipe(src, sub, sub.Next)
	})
}

// Tap calls fn with every value before forwarding it.
func Tap[T any](src *Stream[T], fn func(T)) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		pipe(src, sub, func(v T) {
			fn(v)
			sub.Next(v)
		})
	})
}

// TapOnce calls fn with the first value of each subscription, before
// forwarding it.
func TapOnce[T any](src *Stream[T], fn func(T)) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		seen := false
		pipe(src, sub, func(v T) {
			if !seen {
				seen = true
				fn(v)
			}
			sub.Next(v)
		})
	})
}

// Take forwards the first n values, then completes.
func Take[T any](src *Stream[T], n int) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		if n <= 0 {
			sub.Complete()
			return
		}
		count := 0
		pipe(src, sub, func(v T) {
			count++
			sub.Next(v)
			if count >= n {
				sub.Complete()
			}
		})
	})
}

// DistinctUntilChanged drops values equal to their predecessor.
func DistinctUntilChanged[T any](src *Stream[T], equal func(a, b T) bool) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		var last T
		has := false
		pipe(src, sub, func(v T) {
			if has && equal(last, v) {
				return
			}
			last, has = v, true
			sub.Next(v)
		})
	})
}

// Each maps fn over every element of every emitted slice.
func Each[T, R any](src *Stream[[]T], fn func(T) R) *Stream[[]R] {
	return Map(src, func(list []T) []R {
		out := make([]R, len(list))
		for i, v := range list {
			out[i] = fn(v)
		}
		return out
	})
}

// CatchError replaces an erroring src with the stream returned by handler.
// Returning Empty swallows the error and completes.
func CatchError[T any](src *Stream[T], handler func(error) *Stream[T]) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		forward(sub, src.Subscribe(Observer[T]{
			Next: sub.Next,
			Error: func(err error) {
				if sub.Closed() {
					return
				}
				forward(sub, handler(err).Subscribe(Observer[T]{
					Next:     sub.Next,
					Error:    sub.Error,
					Complete: sub.Complete,
				}))
			},
			Complete: sub.Complete,
		}))
	})
}
