// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementRecomputes counts ledger rebuilds, labeled by outcome.
	SettlementRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabkeeper_settlement_recomputes_total",
		Help: "Number of debt ledger recomputations.",
	}, []string{"outcome"})

	// SettlementEdges observes how many edges each recompute emitted.
	SettlementEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tabkeeper_settlement_edges",
		Help:    "Debt edges emitted per ledger recomputation.",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	})

	// SettlementDuration observes the wall time of a recompute, including
	// the ledger rewrite.
	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tabkeeper_settlement_duration_seconds",
		Help:    "Duration of ledger recomputation and rewrite.",
		Buckets: prometheus.DefBuckets,
	})

	// HTTPRequests counts handled HTTP requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabkeeper_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "path", "status"})
)
