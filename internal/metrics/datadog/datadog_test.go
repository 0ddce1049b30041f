package datadog

import (
	"reflect"
	"testing"

	"github.com/josefarias3108/projeto-jus/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls  []call
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("expected error without Addr")
	}
}

func TestBackend_ForwardsWithSortedTags(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RowsTotal, 4, metrics.Labels{"table": "dim_juiz", "kind": "exported", "job": "legalbi"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "extract"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []call{
		{"count", metrics.RowsTotal, 4, []string{"job:legalbi", "kind:exported", "table:dim_juiz"}},
		{"histogram", metrics.StepDuration, 0.5, []string{"step:extract"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %#v, want %#v", fc.calls, want)
	}
	if !fc.closed {
		t.Fatalf("Flush must close the client")
	}
}

func TestLabelsToTags_Empty(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
}
