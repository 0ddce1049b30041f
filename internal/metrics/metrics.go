// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the extraction pipeline.
//
// A global backend defaults to a no-op implementation, so instrumentation is
// always safe to call even when no metrics system is configured. Concrete
// backends live in subpackages (prompush, datadog) and are installed with
// SetBackend from the command wiring.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal    = "legalbi_step_total"
	StepDuration = "legalbi_step_duration_seconds"
	RowsTotal    = "legalbi_rows_total"
	TablesTotal  = "legalbi_tables_total"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
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

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (extract, validate, stage, commit, publish) for a table.
func RecordStep(job, table, step string, err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	lbls := Labels{
		"job":    job,
		"table":  table,
		"step":   step,
		"status": status,
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for a table. Kinds mirror the
// audit counts: "extracted", "exported", "rejected", "duplicates",
// "nulls_found", "nulls_filled".
func RecordRows(job, table, kind string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":   job,
		"table": table,
		"kind":  kind,
	})
}

// RecordTable counts a finished table by outcome ("success", "warning",
// "error").
func RecordTable(job, table, status string) {
	backend.IncCounter(TablesTotal, 1, Labels{
		"job":    job,
		"table":  table,
		"status": status,
	})
}
