// Package telemetry exposes Prometheus metrics for the ingest pipeline.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_documents_total",
			Help: "Total number of filing documents processed, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_http_requests_total",
			Help: "Total number of outbound HTTP requests, labeled by status code.",
		},
		[]string{"code"},
	)

	httpRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgar_http_retries_total",
			Help: "Total number of retried HTTP requests.",
		},
	)

	rateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edgar_rate_limit_wait_seconds",
			Help:    "Histogram of token bucket wait durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	holdingsParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edgar_holdings_parsed_total",
			Help: "Total number of holdings table entries extracted.",
		},
	)

	activeWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edgar_active_workers",
			Help: "Number of batch workers currently processing a document.",
		},
	)
)

// ObserveDocument records the outcome of one processed document.
func ObserveDocument(outcome string) {
	documentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records an outbound request by status code.
func ObserveHTTPRequest(code int) {
	httpRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveRetry records one retried request.
func ObserveRetry() {
	httpRetriesTotal.Inc()
}

// ObserveRateLimitWait records time spent waiting on the token bucket.
func ObserveRateLimitWait(d time.Duration) {
	rateLimitWaitSeconds.Observe(d.Seconds())
}

// ObserveHoldings records extracted holdings entries.
func ObserveHoldings(n int) {
	if n > 0 {
		holdingsParsedTotal.Add(float64(n))
	}
}

// IncActiveWorkers increments the active worker count.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active worker count.
func DecActiveWorkers() {
	activeWorkers.Dec()
}
