package stream

// Merge interleaves the values of every source and completes once all of
// them have completed.
func Merge[T any](srcs ...*Stream[T]) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		if len(srcs) == 0 {
			sub.Complete()
			return
		}
		remaining := len(srcs)
		for _, src := range srcs {
			if sub.Closed() {
				return
			}
			forward(sub, src.Subscribe(Observer[T]{
				Next:  sub.Next,
				Error: sub.Error,
				Complete: func() {
					remaining--
					if remaining == 0 {
						sub.Complete()
					}
				},
			}))
		}
	})
}

// SwitchMap projects every value of src to an inner stream and mirrors only
// the most recent one. When a new value arrives, project runs first and the
// previous inner stream is unsubscribed before the new one is subscribed.
// The result completes when src and the active inner stream have completed.
func SwitchMap[T, R any](src *Stream[T], project func(T) *Stream[R]) *Stream[R] {
	return New(func(sub *Subscriber[R]) {
		var (
			inner     *Subscription
			seq       uint64
			active    bool
			outerDone bool
		)
		sub.Add(func() { inner.Unsubscribe() })

		forward(sub, src.Subscribe(Observer[T]{
			Next: func(v T) {
				next := project(v)
				if inner != nil {
					inner.Unsubscribe()
					inner = nil
				}
				seq++
				mine := seq
				active = true
				s := next.Subscribe(Observer[R]{
					Next: func(r R) {
						if mine == seq {
							sub.Next(r)
						}
					},
					Error: func(err error) {
						if mine == seq {
							sub.Error(err)
						}
					},
					Complete: func() {
						if mine != seq {
							return
						}
						active = false
						if outerDone {
							sub.Complete()
						}
					},
				})
				switch {
				case mine != seq || sub.Closed():
					s.Unsubscribe()
				case active:
					inner = s
				}
			},
			Error: sub.Error,
			Complete: func() {
				outerDone = true
				if !active {
					sub.Complete()
				}
			},
		}))
	})
}
