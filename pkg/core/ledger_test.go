package core

import (
	"testing"

	"github.com/go-drift/reactive/pkg/stream"
)

func TestLedger(t *testing.T) {
	var l Ledger
	size := 0
	l.OnChange = func(delta int) { size += delta }

	a, b, c := stream.NewSubscription(), stream.NewSubscription(), stream.NewSubscription()
	l.Register(a)
	l.Register(b)
	if l.Len() != 2 || size != 2 {
		t.Fatalf("Len = %d, gauge = %d, want 2", l.Len(), size)
	}

	// b was never settled: registering c replaces it, a stays.
	l.Register(c)
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
	if !b.Closed() || a.Closed() {
		t.Errorf("closed: a=%v b=%v, want only b", a.Closed(), b.Closed())
	}

	l.ReleasePrevious()
	if l.Len() != 1 || !a.Closed() || c.Closed() {
		t.Errorf("after ReleasePrevious: Len=%d a=%v c=%v", l.Len(), a.Closed(), c.Closed())
	}

	l.Release(stream.NewSubscription())
	if l.Len() != 1 {
		t.Error("releasing an unknown subscription changed the ledger")
	}
	l.Release(c)
	if l.Len() != 0 || !c.Closed() {
		t.Errorf("after Release: Len=%d closed=%v", l.Len(), c.Closed())
	}
	if size != 0 {
		t.Errorf("gauge = %d, want 0", size)
	}
}

func TestLedgerReleaseAll(t *testing.T) {
	var l Ledger
	subs := []*stream.Subscription{stream.NewSubscription(), stream.NewSubscription()}
	for _, s := range subs {
		l.Register(s)
	}
	l.Register(nil)
	l.ReleaseAll()
	l.ReleaseAll()
	for i, s := range subs {
		if !s.Closed() {
			t.Errorf("subscription %d still open", i)
		}
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}
