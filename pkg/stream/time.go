package stream

import (
	"time"

	"github.com/go-drift/reactive/pkg/loop"
)

// Interval emits 0, 1, 2, ... every period on sched. It never completes.
func Interval(sched loop.Scheduler, period time.Duration) *Stream[int] {
	return New(func(sub *Subscriber[int]) {
		var timer loop.Timer
		n := 0
		var tick func()
		tick = func() {
			if sub.Closed() {
				return
			}
			v := n
			n++
			timer = sched.AfterFunc(period, tick)
			sub.Next(v)
		}
		timer = sched.AfterFunc(period, tick)
		sub.Add(func() { timer.Stop() })
	})
}

// Timer emits 0 once after d on sched, then completes.
func Timer(sched loop.Scheduler, d time.Duration) *Stream[int] {
	return New(func(sub *Subscriber[int]) {
		timer := sched.AfterFunc(d, func() {
			sub.Next(0)
			sub.Complete()
		})
		sub.Add(func() { timer.Stop() })
	})
}

// Debounce emits a value only after d has passed on sched without another
// value arriving. A pending value is flushed when src completes.
func Debounce[T any](src *Stream[T], sched loop.Scheduler, d time.Duration) *Stream[T] {
	return New(func(sub *Subscriber[T]) {
		var (
			timer   loop.Timer
			pending T
			has     bool
		)
		emit := func() {
			if !has {
				return
			}
			v := pending
			var zero T
			pending, has = zero, false
			sub.Next(v)
		}
		sub.Add(func() {
			if timer != nil {
				timer.Stop()
			}
		})
		forward(sub, src.Subscribe(Observer[T]{
			Next: func(v T) {
				pending, has = v, true
				if timer != nil {
					timer.Stop()
				}
				timer = sched.AfterFunc(d, emit)
			},
			Error: sub.Error,
			Complete: func() {
				if timer != nil {
					timer.Stop()
				}
				emit()
				sub.Complete()
			},
		}))
	})
}
