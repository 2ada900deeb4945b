package datadog

import (
	"reflect"
	"testing"

	"olympics/internal/metrics"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	calls   []call
	flushed int
	closed  int
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.calls = append(f.calls, call{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Flush() error { f.flushed++; return nil }
func (f *fakeClient) Close() error { f.closed++; return nil }

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("NewBackend(Config{}) error = nil, want non-nil")
	}
}

func TestBackend_ForwardsWithSortedTags(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := NewBackendWithClient(fc)

	b.IncCounter(metrics.RecordsTotal, 3, metrics.Labels{"table": "athletes", "kind": "applied", "job": "olympics"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "load"})

	want := []call{
		{"count", metrics.RecordsTotal, 3, []string{"job:olympics", "kind:applied", "table:athletes"}},
		{"histogram", metrics.StepDurationSeconds, 0.25, []string{"step:load"}},
	}
	if !reflect.DeepEqual(fc.calls, want) {
		t.Fatalf("calls = %#v\nwant %#v", fc.calls, want)
	}

	if err := b.Flush(); err != nil || fc.flushed != 1 {
		t.Fatalf("Flush err=%v flushed=%d", err, fc.flushed)
	}
	if err := b.Close(); err != nil || fc.closed != 1 {
		t.Fatalf("Close err=%v closed=%d", err, fc.closed)
	}
}

func TestBackend_ZeroValueIsNoop(t *testing.T) {
	t.Parallel()

	var b Backend
	b.IncCounter(metrics.StepTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
}

func TestLabelsToTags_Empty(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v, want nil", got)
	}
}
