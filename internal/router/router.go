package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/phoenix-club/membership-core/internal/application"
	"github.com/phoenix-club/membership-core/internal/contact"
	"github.com/phoenix-club/membership-core/internal/member"
	"github.com/phoenix-club/membership-core/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", w.Header().Get("X-Request-Id"),
			)
		})
	}
}

// RequestIDMiddleware stamps each response with a snowflake request id.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-Id", utilities.NewSnowflakeID())
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows cross-origin GET/POST with JSON bodies, matching
// the public site's needs.
func CORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Handlers bundles the HTTP handlers the router mounts.
type Handlers struct {
	Member      *member.Handler
	Application *application.Handler
	Contact     *contact.Handler
}

// RegisterRoutes mounts all endpoints on a standard library ServeMux and
// wraps it with the middleware chain.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/auth/initiate-login", h.Member.InitiateLogin)
	mux.HandleFunc("POST /api/auth/verify-login", h.Member.VerifyLogin)

	mux.HandleFunc("POST /api/applications/submit", h.Application.Submit)
	mux.HandleFunc("GET /api/applications", h.Application.List)

	mux.HandleFunc("POST /api/contact/submit", h.Contact.Submit)
	mux.HandleFunc("GET /api/contact", h.Contact.List)

	handler := LoggingMiddleware(logger)(RequestIDMiddleware()(SecurityHeadersMiddleware()(CORSMiddleware()(mux))))
	return handler
}
