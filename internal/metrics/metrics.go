// Package metrics exposes prometheus collectors for the store coordinator
// and the document store client. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounts"

// Metrics holds the service collectors.
type Metrics struct {
	lockWait      *prometheus.HistogramVec
	lockBusy      *prometheus.CounterVec
	transactions  *prometheus.CounterVec
	storeRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the collection critical section.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"mode"}),
		lockBusy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "lock_busy_total",
			Help:      "Acquisitions abandoned because the lock timeout elapsed.",
		}, []string{"mode"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coordinator",
			Name:      "transactions_total",
			Help:      "Read-modify-write cycles by outcome.",
		}, []string{"outcome"}),
		storeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "requests_total",
			Help:      "Document store requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.lockWait, m.lockBusy, m.transactions, m.storeRequests)
	return m
}

// ObserveLockWait records how long an acquisition waited.
func (m *Metrics) ObserveLockWait(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(mode).Observe(d.Seconds())
}

// IncLockBusy counts a timed-out acquisition.
func (m *Metrics) IncLockBusy(mode string) {
	if m == nil {
		return
	}
	m.lockBusy.WithLabelValues(mode).Inc()
}

// IncTransaction counts a finished cycle.
func (m *Metrics) IncTransaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// IncStoreRequest counts a store round trip.
func (m *Metrics) IncStoreRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.storeRequests.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
