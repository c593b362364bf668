package errors

import (
	"github.com/go-drift/reactive/pkg/logging"
)

// LogHandler is an ErrorHandler that writes errors to a structured logger.
type LogHandler struct {
	// Logger receives the entries. A nil Logger uses logging.Default().
	Logger logging.Logger
	// Verbose attaches stack traces to the entries.
	Verbose bool
}

func (h *LogHandler) logger() logging.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logging.Default()
}

// HandleError logs a ReactiveError at error level.
func (h *LogHandler) HandleError(err *ReactiveError) {
	if err == nil {
		return
	}
	args := []any{"op", err.Op, "kind", err.Kind.String(), "error", err.Err}
	if err.Component != "" {
		args = append(args, "component", err.Component)
	}
	if h.Verbose && err.StackTrace != "" {
		args = append(args, "stack_trace", err.StackTrace)
	}
	h.logger().Error("reactive error", args...)
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	args := []any{"value", err.Value}
	if err.Op != "" {
		args = append(args, "op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		args = append(args, "stack_trace", err.StackTrace)
	}
	h.logger().Error("recovered panic", args...)
}
