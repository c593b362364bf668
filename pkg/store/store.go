// Package store provides a reducer store whose state is a shared stream,
// ready to be embedded as a leaf in a shape.
package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-drift/reactive/pkg/equal"
	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/stream"
)

// Reducer computes the next state from the current state and an action
// payload. Returning the current state unchanged suppresses the emission.
type Reducer[S any] func(state S, payload any) S

// AsyncReducer starts work for an action payload. Every function the
// returned stream emits is applied to the state current when it arrives.
// A later dispatch of the same action unsubscribes the previous stream, so
// only the latest dispatch of each action keeps updating the state.
type AsyncReducer[S any] func(payload any) *stream.Stream[func(S) S]

type action struct {
	name    string
	payload any
}

type update[S any] struct {
	name  string
	apply func(S) S
}

// step carries the previous and next state through the scan.
type step[S any] struct {
	prev, next S
}

// Store holds state of type S that changes only through named actions.
//
// Store is NOT thread-safe. Dispatch on the loop goroutine, and have async
// reducers emit there too.
type Store[S any] struct {
	reducers map[string]Reducer[S]
	async    map[string]AsyncReducer[S]
	actions  *stream.Subject[action]
	state    *stream.Stream[S]
	current  S
	keep     *stream.Subscription
	log      logging.Logger
	handler  errors.ErrorHandler
}

// Option configures a Store.
type Option func(*config)

type config struct {
	logger  logging.Logger
	handler errors.ErrorHandler
}

// WithLogger sets the store's logger.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithErrorHandler routes reducer panics to h.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(c *config) { c.handler = h }
}

// New creates a store seeded with preload.
//
// State flows as actions, applied through the reducers, filtered to actual
// changes, prefixed with preload and replayed to late subscribers. The store
// keeps its own subscription so the state survives moments with no
// outside subscribers; Close releases it.
func New[S any](reducers map[string]Reducer[S], preload S, opts ...Option) *Store[S] {
	return NewAsync(reducers, nil, preload, opts...)
}

// NewAsync creates a store with synchronous and asynchronous reducers. It
// panics if a name is registered in both maps.
func NewAsync[S any](reducers map[string]Reducer[S], async map[string]AsyncReducer[S], preload S, opts ...Option) *Store[S] {
	for name := range async {
		if _, dup := reducers[name]; dup {
			panic(fmt.Sprintf("store: action %q registered as both sync and async", name))
		}
	}
	c := config{logger: logging.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	s := &Store[S]{
		reducers: maps.Clone(reducers),
		async:    maps.Clone(async),
		actions:  stream.NewSubject[action](),
		current:  preload,
		log:      c.logger,
		handler:  c.handler,
	}

	sources := []*stream.Stream[update[S]]{
		stream.Map(stream.Filter(s.actions.Stream(), func(a action) bool {
			_, ok := s.reducers[a.name]
			return ok
		}), func(a action) update[S] {
			return update[S]{name: a.name, apply: func(st S) S { return s.reducers[a.name](st, a.payload) }}
		}),
	}
	for _, name := range slices.Sorted(maps.Keys(s.async)) {
		dispatched := stream.Filter(s.actions.Stream(), func(a action) bool { return a.name == name })
		sources = append(sources, stream.SwitchMap(dispatched, func(a action) *stream.Stream[update[S]] {
			return s.start(name, a.payload)
		}))
	}

	steps := stream.Scan(stream.Merge(sources...), step[S]{next: preload}, func(acc step[S], u update[S]) step[S] {
		return step[S]{prev: acc.next, next: s.reduce(acc.next, u)}
	})
	changed := stream.Filter(steps, func(st step[S]) bool {
		return !equal.Identical(st.prev, st.next)
	})
	states := stream.Map(changed, func(st step[S]) S { return st.next })
	s.state = stream.ShareReplay(stream.StartWith(states, preload), 1)
	s.keep = s.state.Subscribe(stream.NextFunc(func(v S) { s.current = v }))
	return s
}

// start runs the async reducer for name. A panic, a nil stream or a stream
// error is reported and contributes no updates.
func (s *Store[S]) start(name string, payload any) (out *stream.Stream[update[S]]) {
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanicTo(s.handler, &errors.PanicError{
				Op:         "store.reduce " + name,
				Value:      r,
				StackTrace: errors.CaptureStack(),
			})
			out = stream.Empty[update[S]]()
		}
	}()
	src := s.async[name](payload)
	if src == nil {
		return stream.Empty[update[S]]()
	}
	src = stream.CatchError(src, func(err error) *stream.Stream[func(S) S] {
		errors.ReportTo(s.handler, &errors.ReactiveError{
			Op:   "store.reduce " + name,
			Kind: errors.KindResolution,
			Err:  err,
		})
		return stream.Empty[func(S) S]()
	})
	return stream.Map(src, func(fn func(S) S) update[S] { return update[S]{name: name, apply: fn} })
}

func (s *Store[S]) reduce(state S, u update[S]) (next S) {
	next = state
	defer func() {
		if r := recover(); r != nil {
			next = state
			errors.ReportPanicTo(s.handler, &errors.PanicError{
				Op:         "store.reduce " + u.name,
				Value:      r,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	if u.apply == nil {
		return state
	}
	return u.apply(state)
}

// State returns the state stream. Subscribers receive the current state
// immediately, then every change.
func (s *Store[S]) State() *stream.Stream[S] { return s.state }

// Current returns the latest state.
func (s *Store[S]) Current() S { return s.current }

// Dispatch runs the reducer registered under name with payload. An async
// reducer's earlier run for the same name is cancelled.
func (s *Store[S]) Dispatch(name string, payload any) error {
	if !s.known(name) {
		return fmt.Errorf("%w: %q", errors.ErrUnknownAction, name)
	}
	if s.keep.Closed() {
		return errors.ErrDisposed
	}
	s.log.Debug("dispatch", "action", name)
	s.actions.Next(action{name: name, payload: payload})
	return nil
}

// Action returns a function that dispatches name.
func (s *Store[S]) Action(name string) (func(payload any), error) {
	if !s.known(name) {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownAction, name)
	}
	return func(payload any) { _ = s.Dispatch(name, payload) }, nil
}

// Actions returns a dispatch function for every registered action.
func (s *Store[S]) Actions() map[string]func(payload any) {
	out := make(map[string]func(any), len(s.reducers)+len(s.async))
	for _, name := range s.Names() {
		fn, _ := s.Action(name)
		out[name] = fn
	}
	return out
}

// Names returns the registered action names in sorted order.
func (s *Store[S]) Names() []string {
	names := slices.AppendSeq(slices.Collect(maps.Keys(s.reducers)), maps.Keys(s.async))
	slices.Sort(names)
	return names
}

func (s *Store[S]) known(name string) bool {
	if _, ok := s.reducers[name]; ok {
		return true
	}
	_, ok := s.async[name]
	return ok
}

// Close releases the store's own subscription. State subscribers still
// attached keep the state alive until they leave.
func (s *Store[S]) Close() {
	s.keep.Unsubscribe()
}
