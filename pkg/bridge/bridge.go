// Package bridge connects host components to agents.
//
// A host framework owns the component lifecycle; bridge adapts it. Wrap a
// component once through a [Registry], then create one [Instance] per
// mounted host component and forward its lifecycle calls:
//
//	reg := bridge.NewRegistry(core.WithScheduler(lp))
//	w := reg.Wrap(bridge.RenderFunc(Inbox), nil)
//
//	inst := w.NewInstance(host)
//	view, err := inst.Render(props)
//	inst.DidMount()
//	...
//	if inst.ShouldUpdate(prev, next) {
//	    view, err = inst.Render(next)
//	}
//	inst.WillUnmount()
package bridge

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/core"
	"github.com/go-drift/reactive/pkg/equal"
	"github.com/go-drift/reactive/pkg/errors"
)

// Props are the properties a host passes to a component.
type Props = map[string]any

// Component describes its output as a shape.
type Component interface {
	Render(props Props) any
}

// RenderFunc adapts a function to Component.
type RenderFunc func(props Props) any

// Render calls f.
func (f RenderFunc) Render(props Props) any { return f(props) }

// Host is the host component an instance drives.
type Host interface {
	// Refresh forces the host to render again.
	Refresh()
}

// HostFunc adapts a function to Host.
type HostFunc func()

// Refresh calls f.
func (f HostFunc) Refresh() { f() }

// Settings configure a wrapped component.
type Settings struct {
	// Debounce coalesces updates before the host is refreshed.
	Debounce time.Duration
	// DisplayName overrides the name derived from the component's type.
	DisplayName string
	// Pure enables the shallow props gate in ShouldUpdate.
	Pure bool
}

// DefaultSettings returns the settings used when Wrap is given nil.
func DefaultSettings() Settings {
	return Settings{Pure: true}
}

// Registry caches one Wrapper per component identity. Create one per host
// application; registries share nothing.
type Registry struct {
	mu       sync.Mutex
	wrappers map[identity]*Wrapper
	opts     []core.Option
}

type identity struct {
	typ reflect.Type
	id  any
}

// NewRegistry creates a registry whose instances build agents with opts.
func NewRegistry(opts ...core.Option) *Registry {
	return &Registry{
		wrappers: make(map[identity]*Wrapper),
		opts:     opts,
	}
}

// Wrap returns the wrapper for c, creating it on first use. A component
// already wrapped returns the existing wrapper and s is ignored. Closures
// are never cached: every Wrap of one returns a new wrapper.
// It panics if c is nil.
func (r *Registry) Wrap(c Component, s *Settings) *Wrapper {
	if c == nil {
		panic("bridge: Wrap of nil component")
	}
	settings := DefaultSettings()
	if s != nil {
		settings = *s
	}
	key, cacheable := identify(c)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cacheable {
		if w, ok := r.wrappers[key]; ok {
			return w
		}
	}
	name := settings.DisplayName
	if name == "" {
		name = typeName(c)
	}
	w := &Wrapper{
		component: c,
		settings:  settings,
		name:      name,
		registry:  r,
	}
	if cacheable {
		r.wrappers[key] = w
	}
	return w
}

// Len returns the number of cached wrappers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wrappers)
}

// identify returns a stable key for c: the address for pointers, the value
// itself for other comparable types. Among funcs only named top-level
// functions have an identity Go can observe; closures and method values
// share code with every other instance of the same literal, so they are not
// cached.
func identify(c Component) (identity, bool) {
	rv := reflect.ValueOf(c)
	key := identity{typ: rv.Type()}
	switch rv.Kind() {
	case reflect.Func:
		if _, named := funcName(rv); !named {
			return key, false
		}
		key.id = rv.Pointer()
		return key, true
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		key.id = rv.Pointer()
		return key, true
	}
	if rv.Comparable() {
		key.id = c
		return key, true
	}
	return key, false
}

// funcName returns the unqualified name of fn and whether fn is a named
// top-level function.
func funcName(fn reflect.Value) (string, bool) {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "", false
	}
	name := f.Name()
	name = name[strings.LastIndex(name, "/")+1:]
	name = name[strings.Index(name, ".")+1:]
	if name == "" || strings.Contains(name, ".func") || strings.HasSuffix(name, "-fm") {
		return "", false
	}
	return name, true
}

func typeName(c Component) string {
	rv := reflect.ValueOf(c)
	if rv.Kind() == reflect.Func {
		if name, ok := funcName(rv); ok {
			return name
		}
		return core.DefaultDisplayName
	}
	t := rv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return core.DefaultDisplayName
	}
	return t.Name()
}

// Wrapper is a component made reactive.
type Wrapper struct {
	component Component
	settings  Settings
	name      string
	registry  *Registry
}

// Name returns "Reactive(<component name>)".
func (w *Wrapper) Name() string { return "Reactive(" + w.name + ")" }

// Settings returns the wrapper's settings.
func (w *Wrapper) Settings() Settings { return w.settings }

// NewInstance creates the per-host state for one mounted component.
func (w *Wrapper) NewInstance(host Host) *Instance {
	opts := append([]core.Option{}, w.registry.opts...)
	opts = append(opts,
		core.WithDisplayName(w.name),
		core.WithDebounce(w.settings.Debounce),
	)
	var refresh func()
	if host != nil {
		refresh = host.Refresh
	}
	return &Instance{
		wrapper: w,
		agent:   core.New(refresh, opts...),
	}
}

// Instance is one host component's connection to its agent.
type Instance struct {
	wrapper *Wrapper
	agent   *core.Agent
}

// Agent returns the instance's agent.
func (i *Instance) Agent() *core.Agent { return i.agent }

// Render asks the component for its shape and resolves it. A panicking
// component is reported and returned as an error.
func (i *Instance) Render(props Props) (view any, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := &errors.PanicError{
				Op:         "bridge.Render " + i.wrapper.Name(),
				Value:      r,
				StackTrace: errors.CaptureStack(),
			}
			errors.ReportPanic(perr)
			view, err = nil, perr
		}
	}()
	return i.agent.GetView(i.wrapper.component.Render(props))
}

// DidMount marks the host as mounted.
func (i *Instance) DidMount() { i.agent.SetMounted(true) }

// WillUnmount disposes the agent.
func (i *Instance) WillUnmount() { i.agent.SetMounted(false) }

// ShouldUpdate reports whether the host should render again for next.
// Pure components skip renders whose props are shallowly identical,
// ignoring children.
func (i *Instance) ShouldUpdate(prev, next Props) bool {
	if !i.wrapper.settings.Pure {
		return true
	}
	return !equal.Props(prev, next)
}
