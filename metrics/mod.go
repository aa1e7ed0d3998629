// Package metrics declares the prometheus collectors this module exposes.
// Following the root module's convention, the collectors are appended to
// executor.PromCollectors at init time rather than registered here; it is up
// to an entry point such as cmd/batchrun to register them when it wants
// metrics exported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.chainforge.dev/executor"
)

var (
	// BatchTransactions tracks the size of each executed batch.
	BatchTransactions = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "executor_batch_transactions",
		Help:    "number of transactions in a processed batch",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 30, 50, 100},
	})

	// MinedTransactions counts transactions that reached the Mined status.
	MinedTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "executor_mined_transactions_total",
		Help: "total number of transactions classified as mined",
	})

	// FailedTransactions counts transactions that reached the Failed or
	// PreFailed status.
	FailedTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "executor_failed_transactions_total",
		Help: "total number of transactions classified as failed or prefailed",
	})

	// CanceledTransactions counts transactions excluded from packaging
	// because of a mid-execution cancellation.
	CanceledTransactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "executor_canceled_transactions_total",
		Help: "total number of transactions excluded by cancellation",
	})

	// InlineDepth observes the call depth reached by inline transactions.
	InlineDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "executor_inline_depth",
		Help:    "call depth reached while recursing into inline transactions",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 8},
	})
)

func init() {
	executor.PromCollectors = append(executor.PromCollectors,
		BatchTransactions, MinedTransactions, FailedTransactions, CanceledTransactions, InlineDepth)
}

// Observe records one synthesized result's outcome against the relevant
// counters.
func Observe(status string) {
	switch status {
	case "mined":
		MinedTransactions.Inc()
	case "failed", "prefailed":
		FailedTransactions.Inc()
	case "canceled":
		CanceledTransactions.Inc()
	}
}
