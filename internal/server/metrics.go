package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

type metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	computations *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homeloan",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "homeloan",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homeloan",
			Name:      "computations_total",
			Help:      "Mortgage computations by lending institution and outcome.",
		}, []string{"institution", "qualifies"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.computations)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) computed(institution string, qualifies bool) {
	m.computations.WithLabelValues(institution, strconv.FormatBool(qualifies)).Inc()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument tags every request with a request id, records metrics under the
// matched route and logs the outcome. Unknown paths share one route label.
func (h *handler) instrument(routes map[string]bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if !routes[route] {
			route = "other"
		}
		elapsed := time.Since(start)
		h.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())

		h.logger.Info("request served",
			zap.String("op", "server.instrument"),
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}
