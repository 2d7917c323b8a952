// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the loader.
//
// It exposes a narrow Backend interface (counters and durations) behind a
// global, pluggable backend that defaults to a no-op implementation, so
// metric calls are always safe even when no real backend is configured. The
// concrete Prometheus Pushgateway backend lives in the prompush subpackage.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes collected metrics if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep measures one loader step (discover, ensure_schema, load_file)
// with its outcome and duration.
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"step": step, "status": status}
	backend.IncCounter("load_step_total", 1, lbls)
	backend.ObserveDuration("load_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Kinds mirror the run summary fields:
//   - "processed"  rows read from CSV (pre-dedupe)
//   - "dup_exact"  intra-chunk exact duplicates skipped
//   - "dup_conflict" intra-chunk same-key/different-content rows skipped
//   - "inserted"   rows that landed after conflict skipping
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("load_rows_total", float64(delta), Labels{"kind": kind})
}

// RecordChunk counts one committed staging transaction.
func RecordChunk() {
	backend.IncCounter("load_chunks_total", 1, nil)
}
