package core

import (
	"time"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/loop"
	"github.com/go-drift/reactive/pkg/metrics"
)

// DefaultDisplayName names agents created without WithDisplayName.
const DefaultDisplayName = "Anonymous"

// Option configures an Agent.
type Option func(*options)

type options struct {
	debounce    time.Duration
	displayName string
	scheduler   loop.Scheduler
	logger      logging.Logger
	metrics     *metrics.Metrics
	handler     errors.ErrorHandler
}

// WithDebounce sets how long updates are coalesced before the host is
// asked to refresh. Zero still defers the refresh to the next loop turn.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithDisplayName sets the component name used in logs, metrics and errors.
func WithDisplayName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.displayName = name
		}
	}
}

// WithScheduler sets the loop that timers and refreshes run on.
// Defaults to loop.Default().
func WithScheduler(s loop.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithLogger sets the agent's logger. Defaults to logging.Default().
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics enables metrics recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithErrorHandler routes the agent's errors to h instead of the process
// handler.
func WithErrorHandler(h errors.ErrorHandler) Option {
	return func(o *options) { o.handler = h }
}
