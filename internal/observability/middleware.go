package observability

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// InjectLogger stores the base logger on every request context.
func InjectLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = nop
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// RequestLogger emits one structured entry per request and exposes a request-scoped
// logger (request id, method, path) to handlers.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := FromContext(ctx).With(
			zap.String("request_id", chimw.GetReqID(ctx)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		r = r.WithContext(WithLogger(ctx, logger))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("remote_ip", clientIP(r)),
			zap.Bool("htmx", r.Header.Get("HX-Request") == "true"),
		}
		if route := routePattern(r); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func clientIP(r *http.Request) string {
	// chi's RealIP has already folded X-Forwarded-For into RemoteAddr when enabled.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
