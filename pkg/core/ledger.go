package core

import "github.com/go-drift/reactive/pkg/stream"

// Ledger holds the keep-alive subscriptions of an agent's resolution
// generations. It keeps the previous generation's graph attached until its
// successor has settled, so shared sources never see their subscriber
// count touch zero during a hot swap.
//
// Once the first generation is registered the ledger holds one entry while
// settled and two during a handoff.
//
// Ledger is NOT thread-safe. It must only be used from the loop goroutine.
type Ledger struct {
	entries []*stream.Subscription

	// OnChange, when set, is called with the change in size after every
	// mutation.
	OnChange func(delta int)
}

// Register appends sub. If two entries are already held, the newer of them
// belongs to a generation that was superseded before it settled and is
// released first.
func (l *Ledger) Register(sub *stream.Subscription) {
	if sub == nil {
		return
	}
	if len(l.entries) >= 2 {
		last := len(l.entries) - 1
		l.releaseAt(last)
	}
	l.entries = append(l.entries, sub)
	l.changed(1)
}

// ReleasePrevious tears down every entry except the most recently
// registered one.
func (l *Ledger) ReleasePrevious() {
	if len(l.entries) < 2 {
		return
	}
	n := len(l.entries) - 1
	old := l.entries[:n]
	l.entries = []*stream.Subscription{l.entries[n]}
	for _, sub := range old {
		sub.Unsubscribe()
	}
	l.changed(-n)
}

// Release tears down sub if the ledger holds it.
func (l *Ledger) Release(sub *stream.Subscription) {
	for i, e := range l.entries {
		if e == sub {
			l.releaseAt(i)
			return
		}
	}
}

// ReleaseAll tears down every entry.
func (l *Ledger) ReleaseAll() {
	n := len(l.entries)
	if n == 0 {
		return
	}
	old := l.entries
	l.entries = nil
	for _, sub := range old {
		sub.Unsubscribe()
	}
	l.changed(-n)
}

// Len reports how many keep-alive subscriptions are held.
func (l *Ledger) Len() int { return len(l.entries) }

func (l *Ledger) releaseAt(i int) {
	sub := l.entries[i]
	l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
	sub.Unsubscribe()
	l.changed(-1)
}

func (l *Ledger) changed(delta int) {
	if l.OnChange != nil && delta != 0 {
		l.OnChange(delta)
	}
}
