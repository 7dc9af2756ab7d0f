// Package meta serves the endpoints that describe the service itself
// rather than any student: the welcome banner and the health check.
package meta

import (
	"net/http"

	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Welcome is the fixed body of GET /.
type Welcome struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
}

// Root handles GET /. The payload never depends on registry state.
func Root() http.HandlerFunc {
	body := Welcome{
		Message: "Welcome to Student Management API",
		Version: Version,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, body)
	}
}

// HealthCheck handles GET /health.
func HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, Health{Status: "healthy"})
	}
}
