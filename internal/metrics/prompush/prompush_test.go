package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"db2connector/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "job", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "db2connector"},
		{name: "explicit job name is preserved", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

func TestBackendRecordsSteps(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("job", "http://unused:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	lbls := metrics.Labels{"dialect": "db2", "step": "build_sql", "status": "success"}
	b.IncCounter(metrics.StepTotal, 1, lbls)
	b.IncCounter(metrics.StepTotal, 2, lbls)
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, lbls)
	b.ObserveHistogram("unknown", 9, lbls)
	b.IncCounter(metrics.RowsTotal, 10, metrics.Labels{"dialect": "db2", "kind": "read"})
	b.IncCounter(metrics.BatchesTotal, 4, metrics.Labels{"dialect": "db2"})
	b.IncCounter("unknown", 1, nil)

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("db2", "build_sql", "success")); got != 3 {
		t.Fatalf("step counter = %v, want 3", got)
	}
	count, sum := readSummaryCountSum(t, b.stepDuration, "db2", "build_sql", "success")
	if count != 1 || sum != 0.25 {
		t.Fatalf("summary count=%d sum=%v, want 1 and 0.25", count, sum)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("db2", "read")); got != 10 {
		t.Fatalf("row counter = %v, want 10", got)
	}
	if got := readCounterValue(t, b.batchCounter.WithLabelValues("db2")); got != 4 {
		t.Fatalf("batch counter = %v, want 4", got)
	}
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("connector-test", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"dialect": "db2", "step": "query", "status": "success"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(path, "/job/connector-test") {
		t.Fatalf("push path = %q, want job grouping", path)
	}
	if body == "" {
		t.Fatalf("push body is empty")
	}
}
