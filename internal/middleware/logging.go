// Package middleware holds HTTP middleware shared by every route.
//
// HOW MIDDLEWARE FITS TOGETHER
//
// A middleware takes the next handler in the chain and returns a new
// handler that runs code around it:
//
//	func Timing(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        start := time.Now()   // before the route runs
//	        next.ServeHTTP(w, r)  // the route itself
//	        log.Println(time.Since(start)) // after it has answered
//	    })
//	}
//
// chi stacks these with router.Use in registration order, so the first one
// registered is the outermost wrapper. The server registers RequestID
// before Logger, which is why Logger can read the request ID.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter records the status code and byte count of a response.
// http.ResponseWriter has no getter for the status once WriteHeader has been
// called, so the wrapper keeps its own copy.
type responseWriter struct {
	http.ResponseWriter       // embedded: every method not defined below passes straight through
	statusCode          int   // defaults to 200 for handlers that never call WriteHeader
	written             int64 // body bytes
}

// WriteHeader shadows the embedded method to capture the code first.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs one line per request with method, path, status, duration,
// size and the chi request ID. 5xx responses log at Error and 4xx at Warn.
// It must run after chimiddleware.RequestID.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("requestID", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}
