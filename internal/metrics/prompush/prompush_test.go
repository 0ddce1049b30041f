package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/josefarias3108/projeto-jus/internal/metrics"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "legalbi", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "legalbi"},
		{name: "explicit job name is preserved", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

func TestIncCounterAndObserve(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("legalbi", "http://unused")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter(metrics.StepTotal, 2, metrics.Labels{"table": "dim_juiz", "step": "extract", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"table": "dim_juiz", "kind": "exported"})
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"table": "dim_juiz", "status": "success"})
	b.IncCounter("unknown_metric", 9, nil)
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"table": "dim_juiz", "step": "extract", "status": "success"})
	b.ObserveHistogram("unknown_hist", 1, nil)

	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("dim_juiz", "extract", "success")); got != 2 {
		t.Fatalf("step counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(b.rowCounter.WithLabelValues("dim_juiz", "exported")); got != 5 {
		t.Fatalf("row counter = %v, want 5", got)
	}
	if got := testutil.ToFloat64(b.tableCounter.WithLabelValues("dim_juiz", "success")); got != 1 {
		t.Fatalf("table counter = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(b.stepDuration); n != 1 {
		t.Fatalf("summary series = %d, want 1", n)
	}
}

// TestFlushPushesToGateway runs Flush against a fake Pushgateway and checks
// the grouping path and payload.
func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		gotPath string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotBody = r.URL.Path, string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("legalbi", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter(metrics.RowsTotal, 3, metrics.Labels{"table": "fato_processos", "kind": "rejected"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/metrics/job/legalbi" {
		t.Fatalf("push path = %q", gotPath)
	}
	if !strings.Contains(gotBody, metrics.RowsTotal) {
		t.Fatalf("pushed body does not mention %s", metrics.RowsTotal)
	}
}
