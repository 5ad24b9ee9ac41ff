// Package metrics holds the Prometheus collectors the rest of the
// module records against: fan-out search/aggregate latency, per-shard
// error counts, and per-index document counts. Grounded on
// kailas-cloud-vecdex's internal/metrics package, which keeps one
// Namespace-scoped var block of collectors per concern plus a single
// idempotent Register call — the same shape this package follows, with
// "ftsearch" as the namespace instead of vecdex's.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// QueryDuration observes how long a command-layer FT.SEARCH or
	// FT.AGGREGATE call took from parse through merged reply, labeled by
	// command name so the two can be told apart on one dashboard.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ftsearch",
			Name:      "query_duration_seconds",
			Help:      "FT.SEARCH/FT.AGGREGATE duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"command"},
	)

	// ShardErrorsTotal counts fan-out failures returned by any one
	// shard, labeled by the command that triggered the fan-out — // "first shard error aborts the query" behavior means this counter
	// also approximates total failed queries.
	ShardErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ftsearch",
			Name:      "shard_errors_total",
			Help:      "Total shard-local errors observed during fan-out",
		},
		[]string{"command"},
	)

	// IndexDocs gauges the last-observed document count for an index, as
	// seen by FT.INFO; it is a snapshot, not a live counter, since
	// nothing in this module increments it on every Dispatch.
	IndexDocs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ftsearch",
			Name:      "index_docs",
			Help:      "Document count last observed for an index via FT.INFO",
		},
		[]string{"index"},
	)
)

var registered bool

// Register registers every collector in this package with the default
// Prometheus registry. Must be called once from main; safe to call more
// than once.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(ShardErrorsTotal)
	prometheus.MustRegister(IndexDocs)
	registered = true
}
