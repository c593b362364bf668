// Package render paints materialized views to targets.
package render

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/metrics"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
)

// DefaultFrame is the debounce applied by To. Zero defers a paint to the
// next loop turn, so a burst of synchronous updates paints once. Use
// WithFrame to pace paints, e.g. 16ms for one frame at 60Hz.
const DefaultFrame time.Duration = 0

// Renderer paints a view to a named target.
type Renderer interface {
	Paint(view any, target string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(view any, target string) error

// Paint calls f.
func (f RendererFunc) Paint(view any, target string) error { return f(view, target) }

// Option configures To.
type Option func(*config)

type config struct {
	frame   time.Duration
	metrics *metrics.Metrics
	handler errors.ErrorHandler
}

// WithFrame sets the debounce between view updates and paints.
func WithFrame(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.frame = d
		}
	}
}

// WithMetrics records paints.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithErrorHandler routes paint and resolution errors to h.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(c *config) { c.handler = h }
}

// To resolves v and paints every view to target on r, at most once per
// frame. It is the standalone path for views that have no host component.
//
// Paint errors and panics are reported and do not stop later paints. A
// resolution error is reported and ends the subscription.
func To(sched loop.Scheduler, v any, r Renderer, target string, opts ...Option) *stream.Subscription {
	c := config{frame: DefaultFrame}
	for _, opt := range opts {
		opt(&c)
	}
	views := stream.Debounce(shape.Resolve(v), sched, c.frame)
	return views.Subscribe(stream.Observer[any]{
		Next: func(view any) { paint(&c, r, view, target) },
		Error: func(err error) {
			errors.ReportTo(c.handler, &errors.ReactiveError{
				Op:        "render.To",
				Kind:      errors.KindResolution,
				Err:       err,
				Component: target,
			})
		},
	})
}

func paint(c *config, r Renderer, view any, target string) {
	defer func() {
		if rec := recover(); rec != nil {
			errors.ReportPanicTo(c.handler, &errors.PanicError{
				Op:         "render.Paint " + target,
				Value:      rec,
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	err := r.Paint(view, target)
	c.metrics.Paint(target, err)
	if err != nil {
		errors.ReportTo(c.handler, &errors.ReactiveError{
			Op:        "render.Paint",
			Kind:      errors.KindRender,
			Err:       err,
			Component: target,
		})
	}
}

// Frame is one painted view as written by JSONRenderer.
type Frame struct {
	Target string    `json:"target"`
	Seq    uint64    `json:"seq"`
	Time   time.Time `json:"time"`
	View   any       `json:"view"`
}

// JSONRenderer writes one JSON Frame per line.
type JSONRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
	seq uint64
	now func() time.Time
}

// NewJSONRenderer creates a renderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w), now: time.Now}
}

// Paint implements Renderer.
func (j *JSONRenderer) Paint(view any, target string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	return j.enc.Encode(Frame{Target: target, Seq: j.seq, Time: j.now().UTC(), View: view})
}
