package middleware

import (
	"net/http"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

func RequestLogger(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("latency", time.Since(start)),
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, logger.String("request_id", id))
			}
			if ww.Status() >= http.StatusInternalServerError {
				log.Error(r.Context(), "http request failed", fields...)
				return
			}
			log.Info(r.Context(), "http request processed", fields...)
		})
	}
}
