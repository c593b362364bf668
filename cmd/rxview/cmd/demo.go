package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-drift/reactive/cmd/rxview/internal/config"
	"github.com/go-drift/reactive/pkg/bridge"
	"github.com/go-drift/reactive/pkg/core"
	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/render"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/store"
	"github.com/go-drift/reactive/pkg/stream"
)

func init() {
	RegisterCommand(&Command{
		Name:  "demo",
		Short: "Paint a ticking counter as JSON lines",
		Long: `Run a small component whose view embeds a store's state and an
interval. Every refreshed view is written to stdout as one JSON frame.

Flags:
  --ticks N          Stop after N ticks (0 runs until interrupted, default 5)
  --interval D       Time between ticks (default 200ms)`,
		Usage: "rxview demo [--ticks N] [--interval D]",
		Run:   runDemo,
	})
}

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	ticks := fs.Int("ticks", 5, "stop after this many ticks")
	interval := fs.Duration("interval", 200*time.Millisecond, "time between ticks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return demo(ctx, cfg, logger, os.Stdout, *ticks, *interval)
}

// counterState is the demo store's state.
type counterState struct {
	Count int
	Log   []string
}

func counterReducers() map[string]store.Reducer[counterState] {
	return map[string]store.Reducer[counterState]{
		"tick": func(s counterState, p any) counterState {
			at := p.(time.Time)
			return counterState{
				Count: s.Count + 1,
				Log:   append(append([]string(nil), s.Log...), at.Format("15:04:05.000")),
			}
		},
	}
}

// counterView describes the demo component's output. Props carry the
// store so the shape can embed its state stream.
func counterView(props bridge.Props) any {
	st := props["store"].(*store.Store[counterState])
	title := props["title"].(string)
	state := st.State()
	return shape.MapOf(
		"title", title,
		"count", stream.Map(state, func(s counterState) int { return s.Count }),
		"log", stream.Each(stream.Map(state, func(s counterState) []string { return s.Log }), strings.ToUpper),
	)
}

type demoHost struct {
	inst    *bridge.Instance
	props   bridge.Props
	painter render.Renderer
	done    func(view any) bool
	stop    context.CancelFunc
}

func (h *demoHost) Refresh() {
	view, err := h.inst.Render(h.props)
	if err != nil {
		errors.Report(&errors.ReactiveError{Op: "rxview.demo", Kind: errors.KindRender, Err: err})
		return
	}
	h.paint(view)
}

func (h *demoHost) paint(view any) {
	if err := h.painter.Paint(view, "demo"); err != nil {
		errors.Report(&errors.ReactiveError{Op: "rxview.demo", Kind: errors.KindRender, Err: err})
	}
	if h.done(view) {
		h.inst.WillUnmount()
		h.stop()
	}
}

// demo runs until ticks views have been painted or ctx is done.
func demo(ctx context.Context, cfg *config.Resolved, logger logging.Logger, out io.Writer, ticks int, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lp := loop.New()
	counter := store.New(counterReducers(), counterState{}, store.WithLogger(logger))
	defer counter.Close()

	reg := bridge.NewRegistry(core.WithScheduler(lp), core.WithLogger(logger))
	w := reg.Wrap(bridge.RenderFunc(counterView), &bridge.Settings{
		Debounce:    cfg.Debounce,
		DisplayName: cfg.DisplayName,
		Pure:        cfg.Pure,
	})

	host := &demoHost{
		props:   bridge.Props{"title": cfg.DisplayName, "store": counter},
		painter: render.NewJSONRenderer(out),
		stop:    cancel,
		done: func(any) bool {
			return ticks > 0 && counter.Current().Count >= ticks
		},
	}
	host.inst = w.NewInstance(host)

	lp.Post(func() {
		view, err := host.inst.Render(host.props)
		if err != nil {
			errors.Report(&errors.ReactiveError{Op: "rxview.demo", Kind: errors.KindRender, Err: err})
			cancel()
			return
		}
		host.paint(view)
		host.inst.DidMount()

		clock := stream.Interval(lp, interval)
		if ticks > 0 {
			clock = stream.Take(clock, ticks)
		}
		sub := clock.Subscribe(stream.NextFunc(func(int) {
			_ = counter.Dispatch("tick", lp.Now())
		}))
		host.inst.Agent().OnDispose(sub.Unsubscribe)
	})

	logger.Info("demo started", "component", w.Name(), "ticks", ticks, "interval", interval)
	if err := lp.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("demo finished", "count", counter.Current().Count)
	return nil
}
