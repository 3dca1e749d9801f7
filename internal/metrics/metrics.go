// Package metrics provides Prometheus instrumentation for the rental
// transaction core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TransitionsTotal counts rental status transitions by target status.
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gearshare",
			Name:      "rental_transitions_total",
			Help:      "Total rental lifecycle transitions by resulting status.",
		},
		[]string{"status"},
	)

	// RejectionsTotal counts rejected operations by error kind.
	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gearshare",
			Name:      "rental_rejections_total",
			Help:      "Total rejected operations by error kind.",
		},
		[]string{"kind"},
	)

	// EscrowOpsTotal counts escrow operations by kind.
	EscrowOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gearshare",
			Name:      "escrow_operations_total",
			Help:      "Total escrow operations by kind (hold, release, settle).",
		},
		[]string{"kind"},
	)

	// CallbacksTotal counts processor callbacks by dedupe result.
	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gearshare",
			Name:      "processor_callbacks_total",
			Help:      "Total processor callbacks by result (applied, replayed, stale, failed).",
		},
		[]string{"result"},
	)

	// DisputesTotal counts dispute lifecycle events.
	DisputesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gearshare",
			Name:      "disputes_total",
			Help:      "Total dispute events by stage (filed, resolved, closed).",
		},
		[]string{"stage"},
	)
)

// Register registers all collectors with the given registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		TransitionsTotal,
		RejectionsTotal,
		EscrowOpsTotal,
		CallbacksTotal,
		DisputesTotal,
	)
}
