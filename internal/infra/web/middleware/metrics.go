package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Status codes are formatted once instead of on every request.
var statusStrings [600]string

func init() {
	for i := 100; i < 600; i++ {
		statusStrings[i] = strconv.Itoa(i)
	}
}

func statusString(code int) string {
	if code >= 100 && code < 600 {
		return statusStrings[code]
	}
	return strconv.Itoa(code)
}

// MetricsWrapper observes request durations labelled by route pattern, so
// /orders/1 and /orders/2 share a series.
func MetricsWrapper(m metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				path := "unknown"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					path = rctx.RoutePattern()
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				m.ObserveHTTPRequestDuration(r.Method, path, statusString(status), time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
