// Package errors provides structured error handling for reactive shape
// resolution and the agents that bridge it into a host render lifecycle.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

var (
	// ErrNotSettled is returned by synchronous materialization when a shape
	// does not produce a value before subscription returns.
	ErrNotSettled = stderrors.New("shape did not settle synchronously")
	// ErrUnknownAction is returned when dispatching an action no reducer handles.
	ErrUnknownAction = stderrors.New("unknown action")
	// ErrDisposed is returned by operations on an agent or hub after teardown.
	ErrDisposed = stderrors.New("disposed")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindShape indicates a value that cannot be resolved as a shape.
	KindShape
	// KindResolution indicates a stream in a resolution graph failed.
	KindResolution
	// KindRender indicates a renderer failed to paint a view.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindTransport indicates a failure in a remote producer or paint target.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindResolution:
		return "resolution"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ReactiveError is the envelope delivered to an ErrorHandler.
type ReactiveError struct {
	// Op is the operation that failed (e.g., "core.Agent.resolve").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Component is the display name of the reporting component, if any.
	Component string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *ReactiveError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s [%s] component=%s: %v", e.Op, e.Kind, e.Component, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *ReactiveError) Unwrap() error {
	return e.Err
}

// ShapeError reports a value that recursive descent could not classify.
type ShapeError struct {
	// Path locates the value inside the root shape, e.g. "$.items[2].label".
	Path string
	// Type is the Go type name of the offending value.
	Type string
	// Reason says why the value is unsupported.
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unsupported shape at %s: %s (%s)", e.Path, e.Type, e.Reason)
}

// ResolutionError reports a resolution generation that terminated abnormally.
type ResolutionError struct {
	// Agent is the id of the agent that owned the generation.
	Agent string
	// Component is the display name of the owning component.
	Component string
	// Generation is the sequence number of the failed generation.
	Generation uint64
	// Err is the error the stream terminated with.
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution of %s generation %d failed: %v", e.Component, e.Generation, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Agent.refresh").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by agents, renderers and producers.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *ReactiveError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
