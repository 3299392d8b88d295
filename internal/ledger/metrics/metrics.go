package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transaction engine. Submission
// outcomes are labeled by transaction type so dashboards can split document
// processing from asset transfers.
type Metrics struct {
	TransactionsSubmitted *prometheus.CounterVec
	TransactionsCommitted *prometheus.CounterVec
	TransactionsRejected  *prometheus.CounterVec
	SubmitDuration        prometheus.Histogram
	EventsEmitted         prometheus.Counter
}

// New creates a Metrics instance with all engine metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		TransactionsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycledger_transactions_submitted_total",
			Help: "Total transactions submitted, including rejected ones",
		}, []string{"type"}),
		TransactionsCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycledger_transactions_committed_total",
			Help: "Total transactions that committed successfully",
		}, []string{"type"}),
		TransactionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kycledger_transactions_rejected_total",
			Help: "Total transactions rejected before commit, by error code",
		}, []string{"type", "code"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycledger_submit_duration_seconds",
			Help:    "Duration of transaction submission, commit or reject",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kycledger_events_emitted_total",
			Help: "Total domain events handed to listeners after commit",
		}),
	}
}

// ObserveSubmit records the duration of a submission. Call with time.Now()
// captured at the start.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
