package core

import (
	"github.com/google/uuid"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
)

// Agent resolves the shapes one host component renders and asks the host
// to refresh when embedded streams produce new values.
//
// Every GetView submits a new shape. Resolution of an older shape is
// abandoned as soon as a newer one arrives, while the ledger keeps the
// older graph attached until the newer one settles.
//
// Agent is NOT thread-safe. Call it from the loop goroutine only; producers
// on other goroutines reach it through loop.Scheduler.Post.
type Agent struct {
	id      string
	name    string
	refresh func()
	opts    options
	log     logging.Logger

	shapes    *stream.Subject[any]
	pipeline  *stream.Subscription
	ledger    Ledger
	timer     loop.Timer
	disposers []func()

	view       any
	hasView    bool
	stale      bool
	phase      Phase
	generation uint64

	inGetView bool
	syncErr   error
}

// New creates an agent. refresh is the host's force-update; it runs on the
// scheduler after updates settle, never synchronously inside GetView.
func New(refresh func(), opts ...Option) *Agent {
	o := options{displayName: DefaultDisplayName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = loop.Default()
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}

	a := &Agent{
		id:      uuid.NewString(),
		name:    o.displayName,
		refresh: refresh,
		opts:    o,
		shapes:  stream.NewSubject[any](),
	}
	a.log = o.logger.With("agent_id", a.id, "component", a.name)
	a.ledger.OnChange = o.metrics.LedgerEntries
	return a
}

// ID returns the agent's unique id.
func (a *Agent) ID() string { return a.id }

// DisplayName returns the component name the agent reports under.
func (a *Agent) DisplayName() string { return a.name }

// View returns the latest resolved view and whether one exists.
func (a *Agent) View() (any, bool) { return a.view, a.hasView }

// Phase returns the lifecycle phase.
func (a *Agent) Phase() Phase { return a.phase }

// Generation returns the number of shapes submitted so far.
func (a *Agent) Generation() uint64 { return a.generation }

// Ledger exposes the keep-alive ledger for inspection.
func (a *Agent) Ledger() *Ledger { return &a.ledger }

// State returns a snapshot of the agent's state.
func (a *Agent) State() AgentState {
	return AgentState{
		View:           a.view,
		HasView:        a.hasView,
		Phase:          a.phase,
		Generation:     a.generation,
		Ledger:         a.ledger.Len(),
		RefreshPending: a.timer != nil,
	}
}

// GetView submits s for resolution and returns the current view.
//
// When s settles synchronously the returned view is derived from s.
// Otherwise it is the last view of an earlier shape, or nil before any
// shape has settled. An error is returned only when s fails synchronously
// and no earlier view exists.
//
// After disposal GetView resolves nothing and returns the last view, or
// ErrDisposed if there never was one.
func (a *Agent) GetView(s any) (any, error) {
	if a.phase == PhaseDisposed {
		if !a.hasView {
			return nil, errors.ErrDisposed
		}
		return a.view, nil
	}
	if a.pipeline == nil {
		a.pipeline = stream.SwitchMap(a.shapes.Stream(), a.render).Subscribe(stream.Observer[any]{
			Next: a.update,
		})
	}

	a.inGetView, a.syncErr = true, nil
	a.shapes.Next(s)
	a.inGetView = false
	a.stale = false

	if !a.hasView && a.syncErr != nil {
		err := a.syncErr
		a.syncErr = nil
		return nil, err
	}
	return a.view, nil
}

// render builds one resolution generation for s.
func (a *Agent) render(s any) *stream.Stream[any] {
	a.generation++
	gen := a.generation
	start := a.opts.scheduler.Now()
	log := a.log.With("generation", gen)
	a.opts.metrics.Generation(a.name)
	log.Debug("generation started")

	var keepAlive *stream.Subscription
	failed := false
	resolved := stream.CatchError(shape.Resolve(s), func(err error) *stream.Stream[any] {
		failed = true
		a.fail(gen, err)
		if keepAlive != nil {
			a.ledger.Release(keepAlive)
		}
		return stream.Empty[any]()
	})
	shared := stream.ShareReplay(resolved, 1)

	keepAlive = shared.Subscribe(stream.Observer[any]{})
	if failed {
		keepAlive.Unsubscribe()
	} else {
		a.ledger.Register(keepAlive)
	}

	return stream.TapOnce(shared, func(any) {
		a.ledger.ReleasePrevious()
		a.opts.metrics.FirstEmission(a.name, a.opts.scheduler.Now().Sub(start))
		log.Debug("generation settled", "ledger", a.ledger.Len())
	})
}

// fail reports a terminated generation. Failures of superseded
// generations are only logged.
func (a *Agent) fail(gen uint64, err error) {
	if gen != a.generation {
		a.log.Debug("superseded generation failed", "generation", gen, "error", err)
		return
	}
	resErr := &errors.ResolutionError{
		Agent:      a.id,
		Component:  a.name,
		Generation: gen,
		Err:        err,
	}
	if a.inGetView {
		a.syncErr = resErr
	}
	kind := errors.KindResolution
	var shapeErr *errors.ShapeError
	if errors.As(err, &shapeErr) {
		kind = errors.KindShape
	}
	a.opts.metrics.ResolutionError(a.name)
	errors.ReportTo(a.opts.handler, &errors.ReactiveError{
		Op:        "core.Agent.resolve",
		Kind:      kind,
		Err:       resErr,
		Component: a.name,
	})
}

func (a *Agent) update(v any) {
	a.view, a.hasView = v, true
	if a.inGetView {
		return
	}
	switch a.phase {
	case PhaseMounted:
		a.scheduleRefresh()
	case PhaseUnmounted:
		a.stale = true
	}
}

func (a *Agent) scheduleRefresh() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.opts.metrics.RefreshScheduled(a.name)
	a.timer = a.opts.scheduler.AfterFunc(a.opts.debounce, a.fireRefresh)
}

func (a *Agent) fireRefresh() {
	a.timer = nil
	if a.phase != PhaseMounted || a.refresh == nil {
		return
	}
	a.opts.metrics.RefreshFired(a.name)
	a.log.Debug("refresh")
	defer func() {
		if r := recover(); r != nil {
			errors.ReportPanicTo(a.opts.handler, &errors.PanicError{
				Op:         "core.Agent.refresh",
				Value:      r,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	a.refresh()
}

// SetMounted moves the agent through its lifecycle. true marks the host as
// mounted: later updates schedule refreshes, and an update that arrived
// between the first render and mounting schedules one immediately.
// false disposes the agent; it is terminal.
func (a *Agent) SetMounted(mounted bool) {
	switch {
	case a.phase == PhaseDisposed:
		return
	case mounted && a.phase == PhaseUnmounted:
		a.phase = PhaseMounted
		a.opts.metrics.Mounted(1)
		a.log.Debug("mounted")
		if a.stale {
			a.stale = false
			a.scheduleRefresh()
		}
	case !mounted:
		a.dispose()
	}
}

// OnDispose registers cleanup to run when the agent is disposed. It runs
// immediately if the agent is already disposed. The returned function
// unregisters it.
func (a *Agent) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}
	if a.phase == PhaseDisposed {
		cleanup()
		return func() {}
	}
	a.disposers = append(a.disposers, cleanup)
	idx := len(a.disposers) - 1
	return func() {
		if idx < len(a.disposers) {
			a.disposers[idx] = nil
		}
	}
}

func (a *Agent) dispose() {
	if a.phase == PhaseMounted {
		a.opts.metrics.Mounted(-1)
	}
	a.phase = PhaseDisposed
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pipeline.Unsubscribe()
	a.pipeline = nil
	a.ledger.ReleaseAll()
	a.shapes.Complete()

	disposers := a.disposers
	a.disposers = nil
	for _, d := range disposers {
		if d != nil {
			d()
		}
	}
	a.log.Debug("disposed", "generations", a.generation)
}
