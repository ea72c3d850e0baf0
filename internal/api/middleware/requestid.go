package middleware

import (
	"net/http"

	"github.com/kirotools/switchboard/internal/logging"
)

// RequestID attaches a request ID to the context and echoes it back in the
// X-Request-ID response header. Incoming IDs are preserved.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}
