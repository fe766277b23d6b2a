package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks chain and price API requests by client and status
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_upstream_requests_total",
			Help: "The total number of requests to balance and price sources",
		},
		[]string{"client", "status"}, // success, failed
	)

	// UpstreamRequestSeconds tracks upstream request latency
	UpstreamRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_upstream_request_seconds",
			Help:    "Time taken by requests to balance and price sources",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client"},
	)

	// PriceSourceFailures counts failed price lookups
	PriceSourceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_price_source_failures_total",
		Help: "The total number of failed price source calls",
	})

	// StalePriceSnapshots counts stale snapshots handed out after a failure
	StalePriceSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_stale_price_snapshots_total",
		Help: "The total number of stale price snapshots served",
	})

	// SessionsOpen tracks the number of connected wallets
	SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portfolio_sessions_open",
		Help: "The number of sessions currently open",
	})

	// SessionRefreshSeconds tracks the duration of one session refresh
	SessionRefreshSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_session_refresh_seconds",
		Help:    "Time taken to refresh a session in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DiscardedResults counts results dropped as older, closed or for a replaced wallet
	DiscardedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_discarded_results_total",
			Help: "The total number of fetch results not applied to a session",
		},
		[]string{"kind"}, // balances, prices
	)

	// TransactionsRecorded tracks recorded transactions
	TransactionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_transactions_recorded_total",
			Help: "The total number of transactions recorded",
		},
		[]string{"direction", "status"},
	)
)

// RecordUpstreamRequest records one upstream request
func RecordUpstreamRequest(client string, ok bool, seconds float64) {
	status := "success"
	if !ok {
		status = "failed"
	}
	UpstreamRequestsTotal.WithLabelValues(client, status).Inc()
	UpstreamRequestSeconds.WithLabelValues(client).Observe(seconds)
}

// RecordDiscarded records a result a session did not apply
func RecordDiscarded(kind string) {
	DiscardedResults.WithLabelValues(kind).Inc()
}

// RecordTransaction records a stored transaction
func RecordTransaction(direction, status string) {
	TransactionsRecorded.WithLabelValues(direction, status).Inc()
}
