package prompush

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ukdata/internal/metrics"
)

func TestNewBackend_requiresURL(t *testing.T) {
	if _, err := NewBackend("job", ""); err == nil {
		t.Fatal("expected error for empty gateway URL")
	}
}

func TestFlush_pushesToGateway(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("collision_loader", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("load_rows_total", 3, metrics.Labels{"kind": "inserted"})
	b.IncCounter("load_chunks_total", 1, nil)
	b.ObserveDuration("load_step_duration_seconds", 1.5, metrics.Labels{"step": "load_file", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "/metrics/job/collision_loader") {
		t.Errorf("path = %q, want job grouping suffix", gotPath)
	}
}

func TestFlush_gatewayErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	b, err := NewBackend("collision_loader", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err == nil {
		t.Fatal("expected push error, got nil")
	}
}

func TestIncCounter_unknownNameIsIgnored(t *testing.T) {
	b, err := NewBackend("collision_loader", "http://localhost:9091")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	// Must not panic.
	b.IncCounter("someone_elses_metric", 1, nil)
	b.ObserveDuration("someone_elses_metric", 1, nil)
}
