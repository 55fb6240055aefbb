// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the connector.
//
// The package exposes a narrow Backend interface (counters and durations) and
// a global, pluggable backend that defaults to a no-op, so instrumented code
// never needs to know whether metrics are configured. Concrete systems live
// in subpackages (prompush, datadog).
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	StepTotal           = "connector_step_total"
	StepDurationSeconds = "connector_step_duration_seconds"
	RowsTotal           = "connector_rows_total"
	BatchesTotal        = "connector_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep records one connector operation (build_sql, rename_table,
// copy_table_schema, create_table, insert, query, ...) with its outcome and
// latency.
func RecordStep(dialect, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"dialect": dialect,
		"step":    step,
		"status":  status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows counts rows moved through the connector. Kinds are "read" and
// "inserted".
func RecordRows(dialect, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"dialect": dialect,
		"kind":    kind,
	})
}

// RecordBatches counts insert batches flushed by the page sink.
func RecordBatches(dialect string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"dialect": dialect,
	})
}
