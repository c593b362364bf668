package stream

// Share multicasts one execution of src to every concurrent subscriber.
// The first subscriber connects src; when the last one leaves, src is
// unsubscribed and the next subscriber starts a fresh execution.
func Share[T any](src *Stream[T]) *Stream[T] {
	return ShareReplay(src, 0)
}

// ShareReplay is Share that also replays up to the last n values to late
// subscribers.
//
// Reference counting is exact: the instant the subscriber count drops to
// zero, the upstream subscription is torn down and the replay buffer is
// discarded. Consumers that hot-swap between two graphs sharing the same
// source must keep one subscription alive across the swap (see core.Ledger).
//
// If src completes, the buffer is kept and later subscribers receive the
// replay followed by completion. If src errors, the state is reset so the
// next subscriber reconnects.
func ShareReplay[T any](src *Stream[T], n int) *Stream[T] {
	if n < 0 {
		n = 0
	}
	st := &shareState[T]{src: src, size: n}
	return New(st.subscribe)
}

type shareState[T any] struct {
	src  *Stream[T]
	size int

	subject   *Subject[T]
	conn      *Subscription
	buffer    []T
	refs      int
	completed bool
}

func (st *shareState[T]) subscribe(sub *Subscriber[T]) {
	if st.completed {
		for _, v := range st.buffer {
			if sub.Closed() {
				return
			}
			sub.Next(v)
		}
		sub.Complete()
		return
	}

	if st.subject == nil {
		st.subject = NewSubject[T]()
	}
	subject := st.subject
	st.refs++

	for _, v := range append([]T(nil), st.buffer...) {
		if sub.Closed() {
			break
		}
		sub.Next(v)
	}
	inner := subject.Subscribe(Observer[T]{
		Next:     sub.Next,
		Error:    sub.Error,
		Complete: sub.Complete,
	})
	sub.Add(func() {
		inner.Unsubscribe()
		if st.subject != subject {
			return
		}
		st.refs--
		if st.refs == 0 && !st.completed {
			st.reset()
		}
	})
	if sub.Closed() || st.conn != nil || st.subject != subject {
		return
	}

	conn := st.src.Subscribe(Observer[T]{
		Next: func(v T) {
			if st.subject != subject {
				return
			}
			st.push(v)
			subject.Next(v)
		},
		Error: func(err error) {
			if st.subject != subject {
				return
			}
			st.reset()
			subject.Error(err)
		},
		Complete: func() {
			if st.subject != subject {
				return
			}
			st.completed = true
			st.conn = nil
			subject.Complete()
		},
	})
	if st.subject != subject || st.completed {
		conn.Unsubscribe()
		return
	}
	st.conn = conn
}

func (st *shareState[T]) push(v T) {
	if st.size == 0 {
		return
	}
	st.buffer = append(st.buffer, v)
	if len(st.buffer) > st.size {
		st.buffer = st.buffer[len(st.buffer)-st.size:]
	}
}

func (st *shareState[T]) reset() {
	conn := st.conn
	st.subject = nil
	st.conn = nil
	st.buffer = nil
	st.refs = 0
	conn.Unsubscribe()
}
