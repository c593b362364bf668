package stream

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCombineLatestWaitsForEveryChild(t *testing.T) {
	a, b := NewSubject[int](), NewSubject[int]()
	r, _ := record(CombineLatest([]*Stream[int]{a.Stream(), b.Stream()}))

	a.Next(1)
	if len(r.values) != 0 {
		t.Fatalf("emitted a partial tuple: %v", r.values)
	}
	b.Next(2)
	b.Next(3)
	a.Next(4)

	want := [][]int{{1, 2}, {1, 3}, {4, 3}}
	if diff := cmp.Diff(want, r.values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineLatestSynchronousChildren(t *testing.T) {
	r, _ := record(CombineLatest([]*Stream[int]{Of(1), Of(2, 3)}))
	want := [][]int{{1, 2}, {1, 3}}
	if diff := cmp.Diff(want, r.values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if !r.done {
		t.Error("should complete once every child completed")
	}
}

func TestCombineLatestEmpty(t *testing.T) {
	r, _ := record(CombineLatest[int](nil))
	if len(r.values) != 1 || len(r.values[0]) != 0 {
		t.Fatalf("values = %v, want exactly one empty slice", r.values)
	}
	if !r.done {
		t.Error("empty join should complete immediately")
	}
}

func TestCombineLatestEmissionsAreFresh(t *testing.T) {
	a, b := NewSubject[int](), NewSubject[int]()
	r, _ := record(CombineLatest([]*Stream[int]{a.Stream(), b.Stream()}))
	a.Next(1)
	b.Next(2)
	r.values[0][0] = 100
	b.Next(3)
	if diff := cmp.Diff([]int{1, 3}, r.values[1]); diff != "" {
		t.Errorf("mutating an emitted snapshot leaked into the next one (-want +got):\n%s", diff)
	}
}

func TestCombineLatestTeardown(t *testing.T) {
	a, b, c := NewSubject[int](), NewSubject[int](), NewSubject[int]()
	_, sub := record(CombineLatest([]*Stream[int]{a.Stream(), b.Stream(), c.Stream()}))
	sub.Unsubscribe()
	for i, s := range []*Subject[int]{a, b, c} {
		if s.Observed() != 0 {
			t.Errorf("child %d still subscribed after teardown", i)
		}
	}
}

func TestCombineLatestError(t *testing.T) {
	a, b := NewSubject[int](), NewSubject[int]()
	r, _ := record(CombineLatest([]*Stream[int]{a.Stream(), b.Stream()}))
	boom := stderrors.New("boom")
	a.Error(boom)
	if r.err != boom {
		t.Errorf("err = %v, want boom", r.err)
	}
	if b.Observed() != 0 {
		t.Error("sibling still subscribed after error")
	}
}

func TestCombineLatestCompletesWhenChildCannotEmit(t *testing.T) {
	a := NewSubject[int]()
	r, _ := record(CombineLatest([]*Stream[int]{a.Stream(), Empty[int]()}))
	if !r.done {
		t.Error("a child completing without a value should complete the join")
	}
	if a.Observed() != 0 {
		t.Error("remaining child still subscribed")
	}
}
