package metrics

import (
	"errors"
	"testing"
	"time"
)

// recorder captures metric calls for assertions.
type recorder struct {
	counters  map[string]float64
	labels    map[string]Labels
	durations map[string]float64
	flushed   bool
}

func newRecorder() *recorder {
	return &recorder{
		counters:  map[string]float64{},
		labels:    map[string]Labels{},
		durations: map[string]float64{},
	}
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.counters[name] += delta
	r.labels[name] = labels
}

func (r *recorder) ObserveDuration(name string, seconds float64, labels Labels) {
	r.durations[name] = seconds
}

func (r *recorder) Flush() error { r.flushed = true; return nil }

func withRecorder(t *testing.T) *recorder {
	t.Helper()
	rec := newRecorder()
	prev := backend
	SetBackend(rec)
	t.Cleanup(func() { backend = prev })
	return rec
}

func TestRecordStep_statusLabels(t *testing.T) {
	rec := withRecorder(t)

	RecordStep("load_file", nil, 2*time.Second)
	if got := rec.labels["load_step_total"]["status"]; got != "success" {
		t.Errorf("status = %q, want success", got)
	}
	if got := rec.durations["load_step_duration_seconds"]; got != 2 {
		t.Errorf("duration = %v, want 2", got)
	}

	RecordStep("load_file", errors.New("boom"), time.Second)
	if got := rec.labels["load_step_total"]["status"]; got != "failure" {
		t.Errorf("status = %q, want failure", got)
	}
}

func TestRecordRows_ignoresNonPositive(t *testing.T) {
	rec := withRecorder(t)

	RecordRows("inserted", 5)
	RecordRows("inserted", 0)
	RecordRows("inserted", -3)

	if got := rec.counters["load_rows_total"]; got != 5 {
		t.Fatalf("load_rows_total = %v, want 5", got)
	}
}

func TestSetBackend_nilKeepsExisting(t *testing.T) {
	rec := withRecorder(t)
	SetBackend(nil)

	RecordChunk()
	if got := rec.counters["load_chunks_total"]; got != 1 {
		t.Fatalf("load_chunks_total = %v, want 1 (nil SetBackend must not reset)", got)
	}
}

func TestNopBackend_isSafeByDefault(t *testing.T) {
	prev := backend
	backend = nopBackend{}
	defer func() { backend = prev }()

	// Must not panic and Flush must succeed with no backend configured.
	RecordStep("discover", nil, 0)
	RecordRows("processed", 10)
	RecordChunk()
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
