package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealscope_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealscope_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DependentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealscope_dependents_created_total",
			Help: "Child records written after a parent submission",
		},
		[]string{"kind"},
	)

	DependentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealscope_dependents_failed_total",
			Help: "Child records that failed after a parent submission",
		},
		[]string{"kind"},
	)

	EnrichmentFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealscope_enrichment_fetches_total",
			Help: "Homepage fetches by outcome: ok or the failure class",
		},
		[]string{"result"},
	)

	EnrichmentJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealscope_enrichment_jobs_active",
			Help: "Number of enrichment jobs currently running",
		},
	)
)
