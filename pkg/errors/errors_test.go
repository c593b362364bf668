package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/reactive/pkg/logging"
)

func TestReactiveErrorString(t *testing.T) {
	err := &ReactiveError{
		Op:   "core.Agent.resolve",
		Kind: KindResolution,
		Err:  stderrors.New("boom"),
	}
	want := "core.Agent.resolve [resolution]: boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReactiveErrorWithComponent(t *testing.T) {
	err := &ReactiveError{
		Op:        "core.Agent.resolve",
		Kind:      KindShape,
		Component: "Reactive(Counter)",
		Err:       &ShapeError{Path: "$.a", Type: "chan int", Reason: "channels are not streams"},
	}
	got := err.Error()
	if !strings.Contains(got, "component=Reactive(Counter)") {
		t.Errorf("error string %q should contain component", got)
	}
	var shapeErr *ShapeError
	if !As(err, &shapeErr) {
		t.Fatal("As should find the wrapped ShapeError")
	}
	if shapeErr.Path != "$.a" {
		t.Errorf("Path = %q", shapeErr.Path)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindShape, "shape"},
		{KindResolution, "resolution"},
		{KindRender, "render"},
		{KindPanic, "panic"},
		{KindTransport, "transport"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestResolutionErrorUnwrap(t *testing.T) {
	cause := stderrors.New("producer closed")
	err := &ResolutionError{Agent: "id", Component: "Reactive(List)", Generation: 4, Err: cause}
	if !Is(err, cause) {
		t.Error("ResolutionError should unwrap to its cause")
	}
	want := "resolution of Reactive(List) generation 4 failed: producer closed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
	err.Op = "core.Agent.refresh"
	if got, want := err.Error(), "panic in core.Agent.refresh: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var captured *ReactiveError
	handler := &testHandler{onError: func(err *ReactiveError) { captured = err }}

	old := Handler()
	SetHandler(handler)
	defer SetHandler(old)

	Report(&ReactiveError{Op: "test.op", Kind: KindRender, Err: stderrors.New("x")})

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "test.op" {
		t.Errorf("Op = %q, want %q", captured.Op, "test.op")
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportToPrefersExplicitHandler(t *testing.T) {
	var global, local int
	old := Handler()
	SetHandler(&testHandler{onError: func(*ReactiveError) { global++ }})
	defer SetHandler(old)

	ReportTo(&testHandler{onError: func(*ReactiveError) { local++ }}, &ReactiveError{Op: "x"})
	ReportTo(nil, &ReactiveError{Op: "y"})
	ReportTo(nil, nil)

	if local != 1 || global != 1 {
		t.Errorf("local=%d global=%d, want 1 and 1", local, global)
	}
}

func TestRecover(t *testing.T) {
	var captured *PanicError
	old := Handler()
	SetHandler(&testHandler{onPanic: func(err *PanicError) { captured = err }})
	defer SetHandler(old)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if captured == nil {
		t.Fatal("expected panic to be recovered and captured")
	}
	if captured.Value != "intentional test panic" {
		t.Errorf("Value = %v", captured.Value)
	}
	if captured.Op != "test.recover" {
		t.Errorf("Op = %q", captured.Op)
	}
}

func TestRecoverWithCallback(t *testing.T) {
	old := Handler()
	SetHandler(&testHandler{})
	defer SetHandler(old)

	var got any
	func() {
		defer RecoverWithCallback("test.cb", func(r any) { got = r })
		panic(42)
	}()
	if got != 42 {
		t.Errorf("callback got %v, want 42", got)
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Fatal("expected non-empty stack trace")
	}
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	old := Handler()
	defer SetHandler(old)

	SetHandler(nil)
	if _, ok := Handler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", Handler())
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: logging.New(logging.Config{Format: "text", Output: &buf}), Verbose: true}
	h.HandleError(&ReactiveError{Op: "render.To", Kind: KindRender, Err: stderrors.New("paint failed"), Component: "Reactive(App)", StackTrace: "frame"})
	h.HandlePanic(&PanicError{Op: "core.Agent.refresh", Value: "bad"})
	h.HandleError(nil)

	out := buf.String()
	for _, want := range []string{"op=render.To", "kind=render", "component=Reactive(App)", "stack_trace=frame", "recovered panic"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testHandler struct {
	onError func(*ReactiveError)
	onPanic func(*PanicError)
}

func (h *testHandler) HandleError(err *ReactiveError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}
