package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "3tcapital/ms_emision_dian/internal/infrastructure/context"
)

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// RequestLogger puts the correlation id in the request context, echoes it in
// the response and logs one line per request. 5xx logs at Error, 4xx at Warn.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := ctxutil.ResolveCorrelationID(
				r.Header.Get(ctxutil.CorrelationHeader),
				chimw.GetReqID(r.Context()),
			)
			ctx := ctxutil.WithCorrelationID(r.Context(), correlationID)
			w.Header().Set(ctxutil.CorrelationHeader, correlationID)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", rw.statusCode,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / 1e6,
				"bytes", rw.bytesWritten,
			}
			if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
				attrs = append(attrs, "user_agent", userAgent)
			}

			switch {
			case rw.statusCode >= 500:
				log.ErrorContext(ctx, "HTTP request", attrs...)
			case rw.statusCode >= 400:
				log.WarnContext(ctx, "HTTP request", attrs...)
			default:
				log.InfoContext(ctx, "HTTP request", attrs...)
			}
		})
	}
}
