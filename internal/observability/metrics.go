package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	submissionsBlocked     *prometheus.CounterVec
	transitionsTotal       *prometheus.CounterVec
	revalidationsTotal     *prometheus.CounterVec
	revalidationSSEClients prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siakad_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_applications_submitted_total",
			Help: "Total number of applications accepted for review.",
		}, []string{"category"})

		submissionsBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_applications_blocked_total",
			Help: "Total number of submissions refused by the eligibility rule.",
		}, []string{"category"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_workflow_transitions_total",
			Help: "Total number of successful application status transitions.",
		}, []string{"category", "to_status"})

		revalidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siakad_revalidations_total",
			Help: "Total number of view revalidation signals emitted.",
		}, []string{"scope_kind"})

		revalidationSSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "siakad_revalidation_sse_clients",
			Help: "Number of currently connected revalidation stream clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			submissionsBlocked,
			transitionsTotal,
			revalidationsTotal,
			revalidationSSEClients,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ApplicationsSubmitted exposes the counter for accepted submissions.
func ApplicationsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ApplicationsBlocked exposes the counter for eligibility rejections.
func ApplicationsBlocked() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsBlocked
}

// WorkflowTransitions exposes the counter for status transitions.
func WorkflowTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// Revalidations exposes the counter for emitted revalidation signals.
func Revalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return revalidationsTotal
}

// SSEClientsActive exposes the gauge of connected revalidation stream clients.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return revalidationSSEClients
}
