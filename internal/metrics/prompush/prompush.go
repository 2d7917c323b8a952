// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. The loader is a batch process with no scrape endpoint, so
// collected metrics are pushed once at the end of the run.
//
// All Prometheus-specific dependencies are contained here; the rest of the
// program depends only on metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"ukdata/internal/metrics"
)

// Backend pushes loader metrics to a Prometheus Pushgateway.
type Backend struct {
	pusher *push.Pusher

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec
	chunkCounter prometheus.Counter
}

// NewBackend constructs a Pushgateway backend. job groups the pushed metrics
// on the gateway; gatewayURL is its base URL.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = "collision_loader"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "load_step_total",
		Help: "Loader step executions, partitioned by step and status.",
	}, []string{"step", "status"})

	stepDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "load_step_duration_seconds",
		Help:       "Loader step durations in seconds, partitioned by step and status.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"step", "status"})

	rowCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "load_rows_total",
		Help: "Row counts per kind (processed, dup_exact, dup_conflict, inserted).",
	}, []string{"kind"})

	chunkCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "load_chunks_total",
		Help: "Committed staging transactions.",
	})

	reg.MustRegister(stepCounter, stepDuration, rowCounter, chunkCounter)

	return &Backend{
		pusher:       push.New(gatewayURL, job).Gatherer(reg),
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		chunkCounter: chunkCounter,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "load_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "load_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "load_chunks_total":
		b.chunkCounter.Add(delta)
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if name == "load_step_duration_seconds" {
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(seconds)
	}
}

// Flush pushes all collected metrics to the gateway.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
