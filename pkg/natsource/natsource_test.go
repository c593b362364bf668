package natsource

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
	rxtest "github.com/go-drift/reactive/pkg/testing"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func(*nats.Msg)
	subs     int
	unsubs   int
	err      error
}

func (f *fakeSubscriber) Subscribe(subject string, handler func(*nats.Msg)) (func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.handlers == nil {
		f.handlers = make(map[string]func(*nats.Msg))
	}
	f.handlers[subject] = handler
	f.subs++
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, subject)
		f.unsubs++
		return nil
	}, nil
}

func (f *fakeSubscriber) publish(subject, data string) {
	f.mu.Lock()
	h := f.handlers[subject]
	f.mu.Unlock()
	if h != nil {
		h(&nats.Msg{Subject: subject, Data: []byte(data)})
	}
}

type errorCollector struct{ errs []*errors.ReactiveError }

func (c *errorCollector) HandleError(err *errors.ReactiveError) { c.errs = append(c.errs, err) }
func (c *errorCollector) HandlePanic(*errors.PanicError)        {}

func TestSubjectDeliversOnLoop(t *testing.T) {
	sched := rxtest.NewScheduler()
	fake := &fakeSubscriber{}
	prices := Subject(sched, fake, "prices", JSON[float64])

	var got []float64
	sub := prices.Subscribe(stream.NextFunc(func(v float64) { got = append(got, v) }))

	fake.publish("prices", "1.5")
	assert.Empty(t, got, "value delivered off the loop")
	sched.Flush()
	assert.Equal(t, []float64{1.5}, got)

	sub.Unsubscribe()
	assert.Equal(t, 1, fake.unsubs)
}

func TestSubjectIsShared(t *testing.T) {
	sched := rxtest.NewScheduler()
	fake := &fakeSubscriber{}
	names := Subject(sched, fake, "names", Text)

	first, err := shape.Materialize(shape.MapOf("a", names))
	require.ErrorIs(t, err, errors.ErrNotSettled)
	assert.Nil(t, first)

	keep := names.Subscribe(stream.Observer[string]{})
	fake.publish("names", "ada")
	sched.Flush()

	view, err := shape.Materialize(shape.MapOf("a", names, "b", names))
	require.NoError(t, err)
	assert.Equal(t, shape.MapOf("a", "ada", "b", "ada"), view)
	assert.Equal(t, 2, fake.subs, "one subscription for the failed materialize, one shared")
	keep.Unsubscribe()
}

func TestDecodeErrorsAreSkipped(t *testing.T) {
	sched := rxtest.NewScheduler()
	fake := &fakeSubscriber{}
	collector := &errorCollector{}
	counts := Subject(sched, fake, "counts", JSON[int], WithErrorHandler(collector))

	var got []int
	counts.Subscribe(stream.NextFunc(func(v int) { got = append(got, v) }))
	fake.publish("counts", "not json")
	fake.publish("counts", "7")
	sched.Flush()

	assert.Equal(t, []int{7}, got)
	require.Len(t, collector.errs, 1)
	assert.Equal(t, errors.KindTransport, collector.errs[0].Kind)
}

func TestSubscribeFailure(t *testing.T) {
	sched := rxtest.NewScheduler()
	boom := stderrors.New("no responders")
	fake := &fakeSubscriber{err: boom}

	var got error
	Subject(sched, fake, "x", Text).Subscribe(stream.Observer[string]{
		Error: func(err error) { got = err },
	})
	assert.ErrorIs(t, got, boom)
}
