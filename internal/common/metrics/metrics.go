// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	RequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_failed_total",
			Help: "Total number of HTTP requests that ended in an error response",
		},
		[]string{"route", "error_code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route", "method"},
	)

	RequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being handled",
		},
		[]string{"route"},
	)

	SimilarityQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_queries_total",
			Help: "Total number of food alternative lookups",
		},
		[]string{"outcome"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waste_predictions_total",
			Help: "Total number of waste predictions served",
		},
		[]string{"confidence"},
	)

	AlertsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "waste_alerts_published_total",
			Help: "Total number of high-waste alerts published",
		},
	)

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nutrient_catalog_entries",
			Help: "Number of food entries loaded into the nutrient catalog",
		},
	)
)
