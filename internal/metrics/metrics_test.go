package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveOperationIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("seed", "success")
	m.ObserveOperation("seed", "success")
	m.ObserveOperation("seed", "failure")

	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("seed", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("seed", "failure")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}

func TestObserveDriverStoreRecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDriverStore(10 * time.Millisecond)
	m.ObserveDriverStore(20 * time.Millisecond)

	if got := testutil.CollectAndCount(m.DriverStoreDuration); got != 1 {
		t.Errorf("collected %d metrics, want 1", got)
	}

	var metric dto.Metric
	if err := m.DriverStoreDuration.Write(&metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
}

func TestObserveDecryptFailureIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDecryptFailure()
	m.ObserveDecryptFailure()

	if got := testutil.ToFloat64(m.DecryptFailuresTotal); got != 2 {
		t.Errorf("decrypt failures = %v, want 2", got)
	}
}

// A nil *Metrics must absorb every Observe* call without panicking, since
// Vault carries metrics as an optional field (see Open's doc comment).
func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	m.ObserveOperation("seed", "success")
	m.ObserveDriverStore(time.Millisecond)
	m.ObserveDecryptFailure()
}

func TestNewWithNilRegistererSkipsRegistration(t *testing.T) {
	m := New(nil)
	m.ObserveOperation("list", "success")

	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("list", "success")); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
}
