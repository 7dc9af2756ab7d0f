package middleware

import (
	"net/http"

	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// JSONFallback replaces the plain-text 404 and 405 bodies that
// http.ServeMux writes for unmatched requests with the JSON error
// envelope. Responses from matched routes pass through untouched.
//
// mux must be the *http.ServeMux itself: it sets r.Pattern in place before
// calling its handler, and an empty pattern marks the mux's own replies.
func JSONFallback(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fw := &fallbackWriter{ResponseWriter: w, req: r}
		mux.ServeHTTP(fw, r)

		if fw.swallowed != 0 {
			response.WriteError(w, fw.swallowed, http.StatusText(fw.swallowed))
		}
	})
}

type fallbackWriter struct {
	http.ResponseWriter
	req       *http.Request
	swallowed int
	written   bool
}

func (f *fallbackWriter) WriteHeader(code int) {
	if !f.written && f.req.Pattern == "" &&
		(code == http.StatusNotFound || code == http.StatusMethodNotAllowed) {
		f.swallowed = code
	}
	f.written = true
	if f.swallowed == 0 {
		f.ResponseWriter.WriteHeader(code)
	}
}

func (f *fallbackWriter) Write(b []byte) (int, error) {
	if !f.written {
		f.WriteHeader(http.StatusOK)
	}
	if f.swallowed != 0 {
		return len(b), nil
	}
	return f.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (f *fallbackWriter) Unwrap() http.ResponseWriter {
	return f.ResponseWriter
}
