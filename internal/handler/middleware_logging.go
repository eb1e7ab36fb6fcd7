package handler

import (
	"net/http"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// WithLogging logs one line per request and attaches a logger carrying the
// request ID to the request context. Request bodies are never logged: they
// carry wallet secrets.
func WithLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With("request_id", middleware.GetReqID(r.Context()))

			// keeps http.Hijacker for websocket upgrades
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

			reqLog.Info().
				Str("uri", r.URL.Path).
				Str("method", r.Method).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Int("size", ww.BytesWritten()).
				Send()
		})
	}
}
