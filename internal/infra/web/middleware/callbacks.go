package middleware

import (
	"net/http"

	"github.com/DioGolang/GoCommon/pkg/events"
)

// EventCallbacks gives every request its own callback scope, so callbacks
// registered while handling it never see events of another request.
func EventCallbacks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := events.WithCallbacks(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
