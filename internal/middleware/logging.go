package middleware

import (
	"net/http"
	"time"

	"club-api/pkg/logger"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request with the request-scoped logger
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}

			reqLog := logger.FromContext(r.Context(), log)
			switch {
			case status >= http.StatusInternalServerError:
				reqLog.Error("Request completed", fields...)
			case status >= http.StatusBadRequest:
				reqLog.Warn("Request completed", fields...)
			default:
				reqLog.Info("Request completed", fields...)
			}
		})
	}
}
