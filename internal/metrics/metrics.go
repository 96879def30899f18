// Package metrics exposes Prometheus instruments for the recommendation
// engine and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationRequests counts engine calls by variant and outcome.
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miespacio_recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"variant", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "miespacio_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"variant"},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "miespacio_recommendation_candidates",
			Help:    "Number of candidate notes scored per personalized request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// DimensionFallbacks counts dimensions replaced by the neutral score.
	DimensionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miespacio_dimension_fallbacks_total",
			Help: "Total number of dimension scores replaced by the neutral value",
		},
		[]string{"dimension"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miespacio_recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miespacio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "miespacio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func ObserveRecommendation(variant, outcome string, d time.Duration) {
	RecommendationRequests.WithLabelValues(variant, outcome).Inc()
	RecommendationDuration.WithLabelValues(variant).Observe(d.Seconds())
}

func ObserveHTTP(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
