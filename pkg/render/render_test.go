package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	rxerrors "github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/metrics"
	"github.com/go-drift/reactive/pkg/shape"
	"github.com/go-drift/reactive/pkg/stream"
	rxtest "github.com/go-drift/reactive/pkg/testing"
)

type painted struct {
	target string
	view   any
}

type recordingRenderer struct {
	paints []painted
	err    error
}

func (r *recordingRenderer) Paint(view any, target string) error {
	r.paints = append(r.paints, painted{target, view})
	return r.err
}

type countingHandler struct {
	errs   int
	panics int
}

func (h *countingHandler) HandleError(*rxerrors.ReactiveError) { h.errs++ }
func (h *countingHandler) HandlePanic(*rxerrors.PanicError)    { h.panics++ }

func TestToCoalescesSynchronousUpdates(t *testing.T) {
	sched := rxtest.NewScheduler()
	r := &recordingRenderer{}
	n := stream.NewSubject[int]()
	To(sched, shape.MapOf("n", n), r, "main")

	n.Next(1)
	n.Next(2)
	n.Next(3)
	if len(r.paints) != 0 {
		t.Fatal("painted synchronously")
	}
	sched.Flush()

	want := []painted{{"main", shape.MapOf("n", 3)}}
	if diff := cmp.Diff(want, r.paints, cmp.AllowUnexported(painted{})); diff != "" {
		t.Errorf("paints (-want +got):\n%s", diff)
	}
}

func TestWithFramePacesPaints(t *testing.T) {
	sched := rxtest.NewScheduler()
	r := &recordingRenderer{}
	n := stream.NewSubject[int]()
	To(sched, n, r, "main", WithFrame(16*time.Millisecond))

	n.Next(1)
	sched.Advance(10 * time.Millisecond)
	n.Next(2)
	sched.Advance(10 * time.Millisecond)
	if len(r.paints) != 0 {
		t.Fatalf("painted %d times inside the frame", len(r.paints))
	}
	sched.Advance(6 * time.Millisecond)

	want := []painted{{"main", 2}}
	if diff := cmp.Diff(want, r.paints, cmp.AllowUnexported(painted{})); diff != "" {
		t.Errorf("paints (-want +got):\n%s", diff)
	}
}

func TestToStaticViewPaintsImmediately(t *testing.T) {
	r := &recordingRenderer{}
	To(rxtest.NewScheduler(), []string{"a"}, r, "main")
	if len(r.paints) != 1 {
		t.Errorf("paints = %d, want 1", len(r.paints))
	}
}

func TestPaintErrorsAreReported(t *testing.T) {
	sched := rxtest.NewScheduler()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	h := &countingHandler{}
	r := &recordingRenderer{err: errors.New("gone")}
	n := stream.NewSubject[int]()
	To(sched, n, r, "main", WithFrame(0), WithMetrics(m), WithErrorHandler(h))

	n.Next(1)
	sched.Flush()
	n.Next(2)
	sched.Flush()

	if h.errs != 2 {
		t.Errorf("reported errors = %d, want 2", h.errs)
	}
	count, err := testutil.GatherAndCount(reg, "reactive_render_paint_errors_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("paint error series = %d, want 1", count)
	}
}

func TestPaintPanicIsRecovered(t *testing.T) {
	sched := rxtest.NewScheduler()
	h := &countingHandler{}
	calls := 0
	r := RendererFunc(func(any, string) error {
		calls++
		panic("broken surface")
	})
	n := stream.NewSubject[int]()
	To(sched, n, r, "main", WithFrame(0), WithErrorHandler(h))
	n.Next(1)
	sched.Flush()
	n.Next(2)
	sched.Flush()
	if calls != 2 || h.panics != 2 {
		t.Errorf("calls = %d, panics = %d, want 2 and 2", calls, h.panics)
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONRenderer(&buf)
	j.now = func() time.Time { return rxtest.Epoch }

	if err := j.Paint(shape.MapOf("b", 1, "a", true), "main"); err != nil {
		t.Fatal(err)
	}
	if err := j.Paint("x", "side"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"view":{"b":1,"a":true}`) {
		t.Errorf("first frame lost key order: %s", lines[0])
	}
	var f Frame
	if err := json.Unmarshal([]byte(lines[1]), &f); err != nil {
		t.Fatal(err)
	}
	if f.Target != "side" || f.Seq != 2 || f.View != "x" || !f.Time.Equal(rxtest.Epoch) {
		t.Errorf("frame = %+v", f)
	}
}
