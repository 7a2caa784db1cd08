package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the playlist service.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	segmentsAppendedTotal prometheus.Counter
	appendFailuresTotal   *prometheus.CounterVec
	activeSessions        prometheus.Gauge
	transcodeDuration     prometheus.Histogram
}

// New creates and registers Prometheus metrics for the playlist service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	segmentsAppendedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hls_segments_appended_total",
		Help: "Total number of segments committed to a session",
	})
	appendFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hls_append_failures_total",
		Help: "Total number of failed appends by failure kind",
	}, []string{"kind"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hls_active_sessions",
		Help: "Number of sessions that are not finished",
	})
	transcodeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hls_transcode_duration_seconds",
		Help:    "Time spent transcoding and probing one appended segment",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		segmentsAppendedTotal,
		appendFailuresTotal,
		activeSessions,
		transcodeDuration,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		segmentsAppendedTotal: segmentsAppendedTotal,
		appendFailuresTotal:   appendFailuresTotal,
		activeSessions:        activeSessions,
		transcodeDuration:     transcodeDuration,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSegmentsAppended increments the committed segments counter.
func (m *Metrics) IncSegmentsAppended() {
	m.segmentsAppendedTotal.Inc()
}

// IncAppendFailures increments the failure counter for kind
// (e.g. "transcode", "probe", "io").
func (m *Metrics) IncAppendFailures(kind string) {
	m.appendFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveTranscode records how long the transcode and probe steps took.
func (m *Metrics) ObserveTranscode(d time.Duration) {
	m.transcodeDuration.Observe(d.Seconds())
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
