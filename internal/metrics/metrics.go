// Package metrics exposes Prometheus metrics for the Students API.
//
// Metrics are registered on a private registry rather than the global
// default one so that tests can build as many instances as they like.
//
//   - students_api_http_requests_total{method,route,status}
//   - students_api_http_request_duration_seconds{method,route}
//   - students_api_rate_limited_total{route}
//   - students_api_registry_size
package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
)

const namespace = "students_api"

// unmatchedRoute labels requests no route pattern matched, so unknown
// paths can't blow up label cardinality.
const unmatchedRoute = "unmatched"

// Counter reports the current number of stored students.
type Counter interface {
	CountStudents() (int, error)
}

// Metrics owns the collectors and the registry they live on.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
}

// New registers all collectors. If students is non-nil the registry size
// gauge reads from it on every scrape.
func New(students Counter) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429 by route pattern.",
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if students != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_size",
			Help:      "Number of students currently stored.",
		}, func() float64 {
			n, err := students.CountStudents()
			if err != nil {
				slog.Error("metrics: count students", slog.String("error", err.Error()))
				return 0
			}
			return float64(n)
		}))
	}

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the count and latency of every request.
//
// The route label is the ServeMux pattern that matched (e.g.
// "GET /students/{id}"), which the mux stores on the request as it routes
// it, so next must be (or wrap) the mux.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := middleware.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRateLimited counts a request rejected by the rate limiter.
// It matches middleware.WithRejectHook's signature.
func (m *Metrics) ObserveRateLimited(r *http.Request) {
	m.rateLimited.WithLabelValues(routeLabel(r)).Inc()
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedRoute
	}
	return r.Pattern
}
