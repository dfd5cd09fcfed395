package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds the request context by timeout. Handlers that pass the
// context to blocking calls, such as health probes, give up when it expires.
func Deadline(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
