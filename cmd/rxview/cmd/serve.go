package cmd

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/reactive/cmd/rxview/internal/config"
	"github.com/go-drift/reactive/pkg/bridge"
	"github.com/go-drift/reactive/pkg/core"
	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/metrics"
	"github.com/go-drift/reactive/pkg/natsource"
	"github.com/go-drift/reactive/pkg/render"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
	"github.com/go-drift/reactive/pkg/wsrender"
)

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Serve views to websocket clients",
		Long: `Serve a live view over websocket and expose Prometheus metrics.

The "main" target shows a feed: messages from nats.subject when nats.url is
configured, otherwise a ticking counter. The "status" target reports the
number of connected clients.

Connect with ws://<addr><ws_path>?target=main.

Flags:
  --addr ADDR        Listen address (overrides serve.addr)`,
		Usage: "rxview serve [--addr ADDR]",
		Run:   runServe,
	})
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, logger)
}

// feedView describes the main target.
func feedView(props bridge.Props) any {
	return shape.MapOf(
		"title", props["title"],
		"source", props["source"],
		"feed", props["feed"],
	)
}

type hubHost struct {
	inst   *bridge.Instance
	props  bridge.Props
	hub    *wsrender.Hub
	target string
}

func (h *hubHost) Refresh() {
	view, err := h.inst.Render(h.props)
	if err != nil {
		errors.Report(&errors.ReactiveError{Op: "rxview.serve", Kind: errors.KindRender, Err: err, Component: h.target})
		return
	}
	if err := h.hub.Paint(view, h.target); err != nil {
		errors.Report(&errors.ReactiveError{Op: "rxview.serve", Kind: errors.KindRender, Err: err, Component: h.target})
	}
}

func serve(ctx context.Context, cfg *config.Resolved, logger logging.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	lp := loop.New()
	hub := wsrender.NewHub(wsrender.WithLogger(logger), wsrender.WithMetrics(m))
	defer hub.Close()

	source := "interval"
	feed := stream.Map(stream.Interval(lp, time.Second), func(n int) any { return n })
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("rxview"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer func() { _ = nc.Drain() }()
		source = "nats:" + cfg.NATSSubject
		feed = natsource.Subject(lp, natsource.FromConn(nc), cfg.NATSSubject, natsource.JSON[any])
	}

	registry := bridge.NewRegistry(
		core.WithScheduler(lp),
		core.WithLogger(logger),
		core.WithMetrics(m),
	)
	w := registry.Wrap(bridge.RenderFunc(feedView), &bridge.Settings{
		Debounce:    cfg.Debounce,
		DisplayName: cfg.DisplayName,
		Pure:        cfg.Pure,
	})
	host := &hubHost{
		props:  bridge.Props{"title": cfg.DisplayName, "source": source, "feed": feed},
		hub:    hub,
		target: "main",
	}
	host.inst = w.NewInstance(host)

	lp.Post(func() {
		host.Refresh()
		host.inst.DidMount()

		clients := stream.Map(stream.Interval(lp, 5*time.Second), func(int) int { return hub.Clients() })
		status := render.To(lp, shape.MapOf(
			"version", Version,
			"clients", stream.StartWith(clients, 0),
		), hub, "status", render.WithMetrics(m))
		host.inst.Agent().OnDispose(status.Unsubscribe)
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, hub)
	mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", cfg.Addr, "ws", cfg.WSPath, "metrics", cfg.MetricsPath, "source", source)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := <-serverErr; err != nil {
			logger.Error("server failed", "error", err)
		}
		cancel()
	}()

	_ = lp.Run(runCtx)
	host.inst.WillUnmount()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err, ok := <-serverErr; ok && err != nil {
		return err
	}
	return nil
}
