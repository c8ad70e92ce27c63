package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchRequestsTotal  *prometheus.CounterVec
	searchHitTotal       *prometheus.CounterVec
	searchNoContextTotal *prometheus.CounterVec
	searchChunks         *prometheus.HistogramVec
	searchDuration       *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexicon",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexicon",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lexicon",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexicon",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total successful corpus search requests.",
		},
		[]string{"service", "endpoint"},
	)
	searchHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexicon",
			Subsystem: "search",
			Name:      "retrieval_hit_total",
			Help:      "Total search requests with at least one retrieved chunk.",
		},
		[]string{"service", "endpoint"},
	)
	searchNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexicon",
			Subsystem: "search",
			Name:      "no_context_total",
			Help:      "Total search requests that retrieved nothing.",
		},
		[]string{"service", "endpoint"},
	)
	searchChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexicon",
			Subsystem: "search",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexicon",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchRequestsTotal,
		searchHitTotal,
		searchNoContextTotal,
		searchChunks,
		searchDuration,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		searchRequestsTotal:  searchRequestsTotal,
		searchHitTotal:       searchHitTotal,
		searchNoContextTotal: searchNoContextTotal,
		searchChunks:         searchChunks,
		searchDuration:       searchDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry so supporting collectors, like
// the pipeline stage observer, share one /metrics endpoint.
func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/briefs/"):
		return "/v1/briefs/{brief_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSearchObservation(service, endpoint string, chunkCount int, duration time.Duration) {
	m.searchRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.searchChunks.WithLabelValues(service, endpoint).Observe(float64(chunkCount))
	m.searchDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if chunkCount > 0 {
		m.searchHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.searchNoContextTotal.WithLabelValues(service, endpoint).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
