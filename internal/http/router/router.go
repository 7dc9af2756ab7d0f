// Package router wires handlers and middleware into a single http.Handler.
//
// Route table:
//
//	GET    /                → welcome banner
//	GET    /health          → health check
//	GET    /metrics         → Prometheus metrics
//	POST   /students        → create a student
//	GET    /students        → list students (rate limited per client)
//	GET    /students/{id}   → get one student
//	PUT    /students/{id}   → partially update a student
//	DELETE /students/{id}   → delete a student
//
// Anything else gets a JSON 404, or a JSON 405 with an Allow header when
// the path exists under another method.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-management-api/internal/http/handlers/meta"
	"github.com/aanand-mishra/student-management-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
	"github.com/aanand-mishra/student-management-api/internal/metrics"
	"github.com/aanand-mishra/student-management-api/internal/storage"
)

// Deps is everything the router needs.
type Deps struct {
	Storage     storage.Storage
	ListLimiter *middleware.FixedWindowLimiter
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// New builds the handler chain:
// request id → access log → metrics → JSON fallback → mux.
func New(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.New(d.Storage)
	}

	listLimit := middleware.RateLimit(d.ListLimiter, middleware.WithRejectHook(m.ObserveRateLimited))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", meta.Root())
	mux.HandleFunc("GET /health", meta.HealthCheck())
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("POST /students", student.New(d.Storage))
	mux.Handle("GET /students", listLimit(student.GetList(d.Storage)))
	mux.HandleFunc("GET /students/{id}", student.GetByID(d.Storage))
	mux.HandleFunc("PUT /students/{id}", student.Update(d.Storage))
	mux.HandleFunc("DELETE /students/{id}", student.Delete(d.Storage))

	return middleware.RequestID(middleware.Logger(log)(m.Middleware(middleware.JSONFallback(mux))))
}
