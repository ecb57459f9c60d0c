// Package observability exposes Prometheus metrics for the HTTP API and the
// progress domain.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	lessonsCompleted *prometheus.CounterVec
	minutesMeditated prometheus.Counter
	betterflies      prometheus.Counter
	authAttempts     *prometheus.CounterVec
}

// NewMetrics initialises the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betterfly_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betterfly_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	lessons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betterfly_lessons_completed_total",
		Help: "Completed lessons by category.",
	}, []string{"category"})
	minutes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "betterfly_minutes_meditated_total",
		Help: "Minutes meditated across all users.",
	})
	betterflies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "betterfly_betterflies_awarded_total",
		Help: "Betterflies awarded for completed lessons.",
	})
	auth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "betterfly_auth_attempts_total",
		Help: "Login and registration attempts by outcome.",
	}, []string{"action", "result"})
	registry.MustRegister(requests, duration, lessons, minutes, betterflies, auth)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		lessonsCompleted: lessons,
		minutesMeditated: minutes,
		betterflies:      betterflies,
		authAttempts:     auth,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// LessonCompleted records one completed lesson. Unknown categories are
// counted under "other".
func (m *Metrics) LessonCompleted(category string, minutes float64, earned int) {
	if m == nil {
		return
	}
	switch category {
	case "sleep", "relaxation", "selfawareness":
	default:
		category = "other"
	}
	m.lessonsCompleted.WithLabelValues(category).Inc()
	if minutes > 0 {
		m.minutesMeditated.Add(minutes)
	}
	if earned > 0 {
		m.betterflies.Add(float64(earned))
	}
}

// AuthAttempt records a login or registration outcome.
func (m *Metrics) AuthAttempt(action string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.authAttempts.WithLabelValues(action, result).Inc()
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
