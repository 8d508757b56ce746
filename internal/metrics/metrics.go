// Package metrics holds the Prometheus collectors shared by services and
// HTTP middleware. Collectors exist from package init so code paths can
// record unconditionally; Register exposes them on the default registry.
package metrics

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euroloo_votes_total",
			Help: "Votes recorded, by type.",
		},
		[]string{"type"},
	)

	TrustTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euroloo_trust_transitions_total",
			Help: "Trust state transitions caused by votes (hidden, verified).",
		},
		[]string{"transition"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euroloo_submissions_total",
			Help: "Toilet submissions, by outcome.",
		},
		[]string{"outcome"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "euroloo_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "euroloo_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "euroloo_cache_hits_total",
			Help: "Search cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "euroloo_cache_misses_total",
			Help: "Search cache misses.",
		},
	)

	CacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euroloo_cache_errors_total",
			Help: "Cache backend errors, by operation. Each is served as a miss.",
		},
		[]string{"op"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. pool may be nil
// (SQLite deployments), in which case the pool gauges are skipped.
func Register(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			VotesTotal,
			TrustTransitions,
			SubmissionsTotal,
			RequestDuration,
			RequestsInFlight,
			CacheHits,
			CacheMisses,
			CacheErrors,
		)

		if pool == nil {
			return
		}
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "euroloo_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "euroloo_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	})
}
