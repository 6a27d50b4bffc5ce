package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the forced-transfer coordinator.
type Metrics struct {
	InitiatedTotal  prometheus.Counter
	ApprovalsTotal  *prometheus.CounterVec
	ExecutedTotal   prometheus.Counter
	CancelledTotal  prometheus.Counter
	RejectionsTotal *prometheus.CounterVec
	ExecuteDuration prometheus.Histogram
	PendingRequests prometheus.Gauge
}

// New creates a new Metrics instance with all coordinator metrics registered.
func New() *Metrics {
	return &Metrics{
		InitiatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_forced_transfer_initiated_total",
			Help: "Total number of forced-transfer requests initiated",
		}),
		ApprovalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_forced_transfer_approvals_total",
			Help: "Total number of approvals recorded, by role",
		}, []string{"role"}),
		ExecutedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_forced_transfer_executed_total",
			Help: "Total number of forced transfers executed",
		}),
		CancelledTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_forced_transfer_cancelled_total",
			Help: "Total number of forced-transfer requests cancelled",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_forced_transfer_rejections_total",
			Help: "Precondition failures, by error code",
		}, []string{"code"}),
		ExecuteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_forced_transfer_execute_duration_seconds",
			Help:    "Duration of execute operations including the ledger move",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PendingRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_forced_transfer_pending_requests",
			Help: "Requests currently awaiting approval or execution",
		}),
	}
}

// ObserveExecute records the duration of an execute operation.
func (m *Metrics) ObserveExecute(start time.Time) {
	m.ExecuteDuration.Observe(time.Since(start).Seconds())
}
