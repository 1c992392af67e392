package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	evaluationsFinalized prometheus.Counter
	evaluationDraftsSaved prometheus.Counter
	evaluationSessionsOpen prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexora_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexora_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexora_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsFinalized = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexora_evaluations_finalized_total",
			Help: "Total number of submissions whose evaluation was finalized.",
		})

		evaluationDraftsSaved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexora_evaluation_drafts_saved_total",
			Help: "Total number of evaluation drafts written to the draft store.",
		})

		evaluationSessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexora_evaluation_sessions_open",
			Help: "Number of evaluation sessions currently held in memory.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			evaluationsFinalized,
			evaluationDraftsSaved,
			evaluationSessionsOpen,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// EvaluationsFinalized exposes the finalized-evaluation counter.
func EvaluationsFinalized() prometheus.Counter {
	RegisterMetrics()
	return evaluationsFinalized
}

// EvaluationDraftsSaved exposes the saved-draft counter.
func EvaluationDraftsSaved() prometheus.Counter {
	RegisterMetrics()
	return evaluationDraftsSaved
}

// EvaluationSessionsOpen exposes the open-session gauge.
func EvaluationSessionsOpen() prometheus.Gauge {
	RegisterMetrics()
	return evaluationSessionsOpen
}
