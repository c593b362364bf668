package stream

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// counted wraps a subject and counts upstream connections.
func counted(s *Subject[int]) (*Stream[int], *int) {
	connects := 0
	return New(func(sub *Subscriber[int]) {
		connects++
		forward(sub, s.Subscribe(Observer[int]{Next: sub.Next, Error: sub.Error, Complete: sub.Complete}))
	}), &connects
}

func TestShareConnectsOnce(t *testing.T) {
	src := NewSubject[int]()
	upstream, connects := counted(src)
	shared := Share(upstream)

	r1, s1 := record(shared)
	r2, s2 := record(shared)
	src.Next(1)

	if *connects != 1 {
		t.Errorf("connects = %d, want 1", *connects)
	}
	if diff := cmp.Diff([]int{1}, r1.values); diff != "" {
		t.Errorf("first subscriber (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, r2.values); diff != "" {
		t.Errorf("second subscriber (-want +got):\n%s", diff)
	}

	s1.Unsubscribe()
	if src.Observed() != 1 {
		t.Error("source torn down while a subscriber remained")
	}
	s2.Unsubscribe()
	if src.Observed() != 0 {
		t.Error("source still subscribed after the last subscriber left")
	}
}

func TestShareReplayReplaysLatest(t *testing.T) {
	src := NewSubject[int]()
	shared := ShareReplay(src.Stream(), 1)

	_, keep := record(shared)
	src.Next(1)
	src.Next(2)
	late, _ := record(shared)
	src.Next(3)

	if diff := cmp.Diff([]int{2, 3}, late.values); diff != "" {
		t.Errorf("late subscriber (-want +got):\n%s", diff)
	}
	keep.Unsubscribe()
}

func TestShareReplayResetsAtZero(t *testing.T) {
	src := NewSubject[int]()
	upstream, connects := counted(src)
	shared := ShareReplay(upstream, 1)

	_, s1 := record(shared)
	src.Next(1)
	s1.Unsubscribe()

	r2, _ := record(shared)
	if len(r2.values) != 0 {
		t.Errorf("replay buffer survived a drop to zero subscribers: %v", r2.values)
	}
	if *connects != 2 {
		t.Errorf("connects = %d, want a fresh connection", *connects)
	}
}

func TestShareReplayKeepsCompletedBuffer(t *testing.T) {
	calls := 0
	src := New(func(sub *Subscriber[int]) {
		calls++
		sub.Next(7)
		sub.Complete()
	})
	shared := ShareReplay(src, 1)

	r1, _ := record(shared)
	r2, _ := record(shared)
	if calls != 1 {
		t.Errorf("source ran %d times, want 1", calls)
	}
	for i, r := range []*recorder[int]{r1, r2} {
		if diff := cmp.Diff([]int{7}, r.values); diff != "" || !r.done {
			t.Errorf("subscriber %d: values=%v done=%v", i, r.values, r.done)
		}
	}
}

func TestShareReplayErrorResets(t *testing.T) {
	boom := stderrors.New("boom")
	calls := 0
	src := New(func(sub *Subscriber[int]) {
		calls++
		if calls == 1 {
			sub.Error(boom)
			return
		}
		sub.Next(calls)
	})
	shared := ShareReplay(src, 1)

	r1, _ := record(shared)
	if r1.err != boom {
		t.Fatalf("err = %v, want boom", r1.err)
	}
	r2, _ := record(shared)
	if diff := cmp.Diff([]int{2}, r2.values); diff != "" {
		t.Errorf("resubscriber after error (-want +got):\n%s", diff)
	}
}

func TestShareReplaySynchronousUnsubscribe(t *testing.T) {
	src := NewBehaviorSubject(5)
	shared := ShareReplay(src.Stream(), 1)
	r, _ := record(Take(shared, 1))
	if diff := cmp.Diff([]int{5}, r.values); diff != "" || !r.done {
		t.Errorf("values=%v done=%v", r.values, r.done)
	}
	if src.Observed() != 0 {
		t.Error("source still connected after the only subscriber took one value and left")
	}
}
