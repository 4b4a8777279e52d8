// Package metrics exposes Prometheus collectors for the harvesting pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pipelineSendsTotal         *prometheus.CounterVec
	pipelineFetchesTotal       *prometheus.CounterVec
	pipelineBytesTotal         *prometheus.CounterVec
	pipelineFetchDuration      *prometheus.HistogramVec
	pipelineParseOutcomesTotal *prometheus.CounterVec
	pipelineQueueDepth         *prometheus.GaugeVec
	pipelineActiveWorkers      *prometheus.GaugeVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pipelineSendsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_sends_total",
				Help: "Work requests accepted onto the request queue, labeled by category and source.",
			},
			[]string{"category", "source"},
		)

		pipelineFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetches_total",
				Help: "Completed fetches, labeled by category and status class.",
			},
			[]string{"category", "status_class"},
		)

		pipelineBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		pipelineFetchDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by category.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"category"},
		)

		pipelineParseOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_parse_outcomes_total",
				Help: "Terminal and retry outcomes of the parse stage, labeled by category and outcome.",
			},
			[]string{"category", "outcome"},
		)

		pipelineQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_queue_depth",
				Help: "Number of items waiting in each pipeline queue.",
			},
			[]string{"queue"},
		)

		pipelineActiveWorkers = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_active_workers",
				Help: "Number of workers currently handling an item, labeled by pool.",
			},
			[]string{"pool"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_rate_limit_delay_seconds",
				Help:    "Time fetches spent waiting on the per-site rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// StatusClass groups HTTP status codes; transport failures map to "error".
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSend counts a request accepted onto the request queue.
func ObserveSend(category, source string) {
	pipelineSendsTotal.WithLabelValues(category, source).Inc()
}

// ObserveFetch records the status, size, and latency of a fetch.
func ObserveFetch(category, rawURL string, statusCode, bytesFetched int, duration time.Duration) {
	pipelineFetchesTotal.WithLabelValues(category, StatusClass(statusCode)).Inc()
	if bytesFetched > 0 {
		pipelineBytesTotal.WithLabelValues(SanitizeSite(rawURL)).Add(float64(bytesFetched))
	}
	pipelineFetchDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// ObserveParseOutcome counts a parse-stage outcome.
func ObserveParseOutcome(category, outcome string) {
	pipelineParseOutcomesTotal.WithLabelValues(category, outcome).Inc()
}

// SetQueueDepth publishes the current length of a named queue.
func SetQueueDepth(queue string, depth int) {
	pipelineQueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// IncActiveWorkers increments the active workers gauge for a pool.
func IncActiveWorkers(pool string) {
	pipelineActiveWorkers.WithLabelValues(pool).Inc()
}

// DecActiveWorkers decrements the active workers gauge for a pool.
func DecActiveWorkers(pool string) {
	pipelineActiveWorkers.WithLabelValues(pool).Dec()
}

// ObserveRateLimitDelay records how long a fetch waited for a site token.
func ObserveRateLimitDelay(site string, delay time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(site).Observe(delay.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
