package bridge

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/reactive/pkg/core"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
	rxtest "github.com/go-drift/reactive/pkg/testing"
)

func Greeting(props Props) any {
	return shape.MapOf("text", "hello "+props["name"].(string), "clock", props["clock"])
}

type Badge struct {
	Label string
}

func (b Badge) Render(Props) any { return b.Label }

type Panel struct {
	Items []string
}

func (p Panel) Render(Props) any { return p.Items }

func newRegistry(sched *rxtest.Scheduler) *Registry {
	return NewRegistry(core.WithScheduler(sched), core.WithLogger(logging.NoOpLogger{}))
}

func TestWrapperNames(t *testing.T) {
	reg := newRegistry(rxtest.NewScheduler())
	tests := []struct {
		c    Component
		s    *Settings
		want string
	}{
		{RenderFunc(Greeting), nil, "Reactive(Greeting)"},
		{Badge{}, nil, "Reactive(Badge)"},
		{&Badge{}, nil, "Reactive(Badge)"},
		{RenderFunc(func(Props) any { return nil }), nil, "Reactive(" + core.DefaultDisplayName + ")"},
		{Badge{Label: "x"}, &Settings{DisplayName: "Chip"}, "Reactive(Chip)"},
	}
	for _, tt := range tests {
		if got := reg.Wrap(tt.c, tt.s).Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestRegistryCachesByIdentity(t *testing.T) {
	reg := newRegistry(rxtest.NewScheduler())
	a := reg.Wrap(RenderFunc(Greeting), nil)
	b := reg.Wrap(RenderFunc(Greeting), &Settings{DisplayName: "ignored"})
	if a != b {
		t.Error("same func wrapped twice produced two wrappers")
	}
	if reg.Wrap(Badge{Label: "a"}, nil) == reg.Wrap(Badge{Label: "b"}, nil) {
		t.Error("distinct component values share a wrapper")
	}
	p1, p2 := Panel{}, Panel{}
	if reg.Wrap(p1, nil) == reg.Wrap(p2, nil) {
		t.Error("uncomparable components must not be cached")
	}
	if reg.Len() != 3 {
		t.Errorf("Len = %d, want 3", reg.Len())
	}

	other := newRegistry(rxtest.NewScheduler())
	if other.Wrap(RenderFunc(Greeting), nil) == a {
		t.Error("registries share wrappers")
	}
}

func labelComponent(label string) RenderFunc {
	return func(Props) any { return label }
}

func TestClosuresFromOneFactoryStayDistinct(t *testing.T) {
	reg := newRegistry(rxtest.NewScheduler())
	inbox := reg.Wrap(labelComponent("inbox"), nil)
	outbox := reg.Wrap(labelComponent("outbox"), nil)
	if inbox == outbox {
		t.Fatal("closures from one factory share a wrapper")
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want closures left uncached", reg.Len())
	}
	for want, w := range map[string]*Wrapper{"inbox": inbox, "outbox": outbox} {
		view, err := w.NewInstance(nil).Render(nil)
		if err != nil || view != want {
			t.Errorf("Render = %v, %v; want %q", view, err, want)
		}
	}
}

func TestInstanceLifecycle(t *testing.T) {
	sched := rxtest.NewScheduler()
	reg := newRegistry(sched)
	refreshes := 0
	inst := reg.Wrap(RenderFunc(Greeting), &Settings{Pure: true, Debounce: 16 * time.Millisecond}).
		NewInstance(HostFunc(func() { refreshes++ }))

	clock := stream.NewBehaviorSubject(1)
	view, err := inst.Render(Props{"name": "ada", "clock": clock})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(shape.MapOf("text", "hello ada", "clock", 1), view); diff != "" {
		t.Errorf("first view (-want +got):\n%s", diff)
	}
	inst.DidMount()

	clock.Next(2)
	clock.Next(3)
	sched.Advance(16 * time.Millisecond)
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}
	got, _ := inst.Agent().View()
	if diff := cmp.Diff(shape.MapOf("text", "hello ada", "clock", 3), got); diff != "" {
		t.Errorf("view (-want +got):\n%s", diff)
	}

	inst.WillUnmount()
	if clock.Observed() != 0 {
		t.Error("unmounted instance still subscribed")
	}
	if inst.Agent().Phase() != core.PhaseDisposed {
		t.Errorf("phase = %v", inst.Agent().Phase())
	}
}

func TestShouldUpdate(t *testing.T) {
	reg := newRegistry(rxtest.NewScheduler())
	s := stream.NewSubject[int]()
	prev := Props{"a": 1, "children": stream.Of("x")}
	same := Props{"a": 1, "children": stream.Of("y")}
	changed := Props{"a": 2, "children": s}

	pure := reg.Wrap(Badge{Label: "pure"}, nil).NewInstance(nil)
	if pure.ShouldUpdate(prev, same) {
		t.Error("pure instance should skip props differing only in children")
	}
	if !pure.ShouldUpdate(prev, changed) {
		t.Error("pure instance should update when a prop changed")
	}

	impure := reg.Wrap(Badge{Label: "impure"}, &Settings{}).NewInstance(nil)
	if !impure.ShouldUpdate(prev, same) {
		t.Error("impure instance should always update")
	}
}

func TestRenderPanicBecomesError(t *testing.T) {
	reg := newRegistry(rxtest.NewScheduler())
	inst := reg.Wrap(RenderFunc(Greeting), nil).NewInstance(nil)
	if _, err := inst.Render(Props{}); err == nil {
		t.Error("missing name prop should surface as an error")
	}
}
