// Package metrics registers the Prometheus collectors the daemon
// exposes for vault operations (§4.6 of the expanded design).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the vault and its drivers report to.
type Metrics struct {
	OperationsTotal      *prometheus.CounterVec
	DriverStoreDuration  prometheus.Histogram
	DecryptFailuresTotal prometheus.Counter
}

// New builds and registers the collectors against registerer. Passing
// nil skips registration, which test code uses to avoid colliding with
// the global default registry across repeated runs.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_operations_total",
				Help: "Total number of vault method invocations by method and result.",
			},
			[]string{"method", "result"},
		),
		DriverStoreDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vault_driver_store_duration_seconds",
				Help:    "Time spent in a single driver Store call.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		DecryptFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_decrypt_failures_total",
				Help: "Total number of Decrypt calls that failed (wrong key or corrupted ciphertext).",
			},
		),
	}

	if registerer != nil {
		registerer.MustRegister(m.OperationsTotal, m.DriverStoreDuration, m.DecryptFailuresTotal)
	}
	return m
}

// ObserveOperation records one vault method invocation and its outcome.
// result is "success" or "failure"; never carries a secret or id.
func (m *Metrics) ObserveOperation(method, result string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(method, result).Inc()
}

// ObserveDriverStore records the wall-clock duration of one driver
// Store call.
func (m *Metrics) ObserveDriverStore(d time.Duration) {
	if m == nil {
		return
	}
	m.DriverStoreDuration.Observe(d.Seconds())
}

// ObserveDecryptFailure increments the decrypt-failure counter.
func (m *Metrics) ObserveDecryptFailure() {
	if m == nil {
		return
	}
	m.DecryptFailuresTotal.Inc()
}
