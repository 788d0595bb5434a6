package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the scholar rank service.
// Metrics are organized by subsystem: HTTP, upstream, and results. All collectors
// are registered via promauto with the default Prometheus registry.
type Metrics struct {
	// HTTPRequestsTotal counts served requests, labeled by route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request handling duration in seconds, labeled by route.
	HTTPRequestDuration *prometheus.HistogramVec

	// UpstreamRequestsTotal counts upstream calls, labeled by endpoint and status code.
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestsFailed counts failed upstream calls, labeled by endpoint and error type.
	UpstreamRequestsFailed *prometheus.CounterVec

	// UpstreamRequestDuration observes upstream call duration in seconds, labeled by endpoint.
	UpstreamRequestDuration *prometheus.HistogramVec

	// UpstreamQuotaRemaining is the last X-RateLimit-Remaining value reported upstream.
	UpstreamQuotaRemaining prometheus.Gauge

	// PapersFetched counts papers returned by searches.
	PapersFetched prometheus.Counter

	// PapersEnriched counts papers whose author list was resolved.
	PapersEnriched prometheus.Counter

	// AuthorsPerRanking observes the number of distinct authors in each ranking.
	AuthorsPerRanking prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds by route",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"route"}),

		// Upstream
		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests to the upstream search API",
		}, []string{"endpoint", "status"}),
		UpstreamRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_failed_total",
			Help:      "Total number of failed requests to the upstream search API",
		}, []string{"endpoint", "error_type"}),
		UpstreamRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of requests to the upstream search API in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		UpstreamQuotaRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_quota_remaining",
			Help:      "Remaining upstream quota as last reported by X-RateLimit-Remaining",
		}),

		// Results
		PapersFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_fetched_total",
			Help:      "Total number of papers returned by searches",
		}),
		PapersEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_enriched_total",
			Help:      "Total number of papers enriched with author details",
		}),
		AuthorsPerRanking: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "authors_per_ranking",
			Help:      "Number of distinct authors per ranking",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		}),
	}
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route string, status int, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordUpstreamRequest records an upstream call that produced a response.
func (m *Metrics) RecordUpstreamRequest(endpoint string, status int, durationSeconds float64) {
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordUpstreamFailure records a failed upstream call.
// errorType is one of "transport", "status", or "decode".
func (m *Metrics) RecordUpstreamFailure(endpoint, errorType string) {
	m.UpstreamRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}

// RecordQuotaRemaining stores the upstream-reported remaining quota.
// Unparsable values are ignored.
func (m *Metrics) RecordQuotaRemaining(remaining string) {
	if v, err := strconv.ParseFloat(remaining, 64); err == nil {
		m.UpstreamQuotaRemaining.Set(v)
	}
}

// RecordPapersFetched records papers returned by a search.
func (m *Metrics) RecordPapersFetched(count int) {
	m.PapersFetched.Add(float64(count))
}

// RecordPapersEnriched records papers enriched with authors.
func (m *Metrics) RecordPapersEnriched(count int) {
	m.PapersEnriched.Add(float64(count))
}

// RecordAuthorsRanked records the size of a ranking.
func (m *Metrics) RecordAuthorsRanked(count int) {
	m.AuthorsPerRanking.Observe(float64(count))
}
