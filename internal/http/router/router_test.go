package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/memory"
	"github.com/aanand-mishra/student-management-api/internal/storage/sqlite"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

func newServer(t *testing.T, s storage.Storage) *httptest.Server {
	t.Helper()
	limiter := middleware.NewFixedWindowLimiter(5, time.Minute)
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(New(Deps{
		Storage:     s,
		ListLimiter: limiter,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestRoot(t *testing.T) {
	srv := newServer(t, memory.New())
	want := `{"message": "Welcome to Student Management API", "version": "1.0.0"}`

	resp, body := send(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, want, string(body))

	send(t, srv, http.MethodPost, "/students", `{"name": "A", "age": 1, "email": "a", "course": "c"}`)

	_, body = send(t, srv, http.MethodGet, "/", "")
	assert.JSONEq(t, want, string(body), "root payload doesn't depend on registry state")
}

func TestUnknownPath(t *testing.T) {
	srv := newServer(t, memory.New())

	for _, path := range []string{"/nope", "/students/1/grades", "/favicon.ico"} {
		t.Run(path, func(t *testing.T) {
			resp, body := send(t, srv, http.MethodGet, path, "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"status": "error", "detail": "Not Found"}`, string(body))
		})
	}
}

func TestWrongMethod(t *testing.T) {
	srv := newServer(t, memory.New())

	tests := []struct {
		method, path string
		wantAllow    []string
	}{
		{http.MethodPatch, "/students/1", []string{"GET", "PUT", "DELETE"}},
		{http.MethodDelete, "/students", []string{"GET", "POST"}},
		{http.MethodPost, "/health", []string{"GET"}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, body := send(t, srv, tt.method, tt.path, `{"name": "x"}`)

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"status": "error", "detail": "Method Not Allowed"}`, string(body))

			allow := resp.Header.Get("Allow")
			for _, m := range tt.wantAllow {
				assert.Contains(t, allow, m)
			}
		})
	}

	_, body := send(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, string(body), `students_api_http_requests_total{method="PATCH",route="unmatched",status="405"} 1`)
}

func TestHealth(t *testing.T) {
	srv := newServer(t, memory.New())

	resp, body := send(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "healthy"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}

func TestListRateLimit(t *testing.T) {
	srv := newServer(t, memory.New())

	for i := 1; i <= 5; i++ {
		resp, _ := send(t, srv, http.MethodGet, "/students", "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "call %d", i)
	}

	resp, body := send(t, srv, http.MethodGet, "/students", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"status": "error", "detail": "Rate limit exceeded: 5 per 1 minute"}`, string(body))

	// Only the list endpoint is limited.
	resp, _ = send(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = send(t, srv, http.MethodGet, "/students/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = send(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, string(body), `students_api_rate_limited_total{route="GET /students"} 1`)
	assert.Contains(t, string(body), `students_api_http_requests_total{method="GET",route="GET /students",status="429"} 1`)
}

// lifecycle runs the full create → read → update → delete flow.
func lifecycle(t *testing.T, srv *httptest.Server) {
	resp, body := send(t, srv, http.MethodPost, "/students",
		`{"name": "Alice Smith", "age": 22, "email": "alice@example.com", "course": "Mathematics"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created types.Student
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 42, created.Age)

	resp, body = send(t, srv, http.MethodPut, "/students/1", `{"course": "Physics"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t,
		`{"id": 1, "name": "Alice Smith", "age": 42, "email": "alice@example.com", "course": "Physics"}`,
		string(body))

	resp, body = send(t, srv, http.MethodGet, "/students", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []types.Student
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Physics", list[0].Course)

	resp, body = send(t, srv, http.MethodDelete, "/students/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = send(t, srv, http.MethodGet, "/students/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"status": "error", "detail": "Student not found"}`, string(body))

	resp, body = send(t, srv, http.MethodPost, "/students",
		`{"name": "Bob", "age": 30, "email": "bob@example.com", "course": "History"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second types.Student
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, int64(2), second.ID, "deleted ids are not reissued")
}

func TestLifecycle_Memory(t *testing.T) {
	lifecycle(t, newServer(t, memory.New()))
}

func TestLifecycle_SQLite(t *testing.T) {
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	lifecycle(t, newServer(t, s))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, memory.New())
	send(t, srv, http.MethodPost, "/students", `{"name": "A", "age": 1, "email": "a", "course": "c"}`)

	resp, body := send(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "students_api_registry_size 1")
	assert.Contains(t, string(body), `students_api_http_requests_total{method="POST",route="POST /students",status="201"} 1`)
}
