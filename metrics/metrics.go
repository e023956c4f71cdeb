// Package metrics exposes Prometheus collectors for the posting and
// reporting paths.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PostingsTotal counts committed postings by transaction kind.
	PostingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "postings_total",
		Help:      "Committed ledger postings by transaction kind.",
	}, []string{"kind"})

	// PostingFailures counts postings rolled back before commit.
	PostingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "posting_failures_total",
		Help:      "Postings that failed and were rolled back.",
	})

	// DuplicateIngestions counts idempotent redeliveries absorbed by the
	// dedup key.
	DuplicateIngestions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "duplicate_ingestions_total",
		Help:      "Machine-source redeliveries returned from the dedup key.",
	})

	// RecomputesTotal counts worker report recomputes by type and outcome.
	RecomputesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "report_recomputes_total",
		Help:      "Report recomputes processed by the cache worker.",
	}, []string{"report", "status"})

	// CacheRequests counts report cache lookups by layer and outcome.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "report_cache_requests_total",
		Help:      "Report cache lookups by layer and outcome (hit/miss/error).",
	}, []string{"layer", "outcome"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
