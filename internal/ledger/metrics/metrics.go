package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	TransfersTotal   prometheus.Counter
	ForcedMovesTotal prometheus.Counter
	MintsTotal       prometheus.Counter
	BurnsTotal       prometheus.Counter
	TransferDuration prometheus.Histogram
	AllowlistHits    prometheus.Counter
	AllowlistMisses  prometheus.Counter
}

// New creates a new Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_transfers_total",
			Help: "Total number of voluntary transfers executed",
		}),
		ForcedMovesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_forced_moves_total",
			Help: "Total number of forced moves executed by the coordinator",
		}),
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_mints_total",
			Help: "Total number of mint operations",
		}),
		BurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_burns_total",
			Help: "Total number of burn operations",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_ledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AllowlistHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_allowlist_cache_hits_total",
			Help: "Allowlist cache hits",
		}),
		AllowlistMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_ledger_allowlist_cache_misses_total",
			Help: "Allowlist cache misses",
		}),
	}
}

// ObserveTransfer records the duration of a transfer operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}
