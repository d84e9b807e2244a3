package middleware

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"github.com/jarvis-platform/orchestrator/pkg/requestid"
)

// RateLimit rejects requests with 429 once the limiter has no token left.
func RateLimit(limiter *rate.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				zap.S().Named("http").Warnw("request rate limited", "request_id", requestid.FromRequest(r), "path", r.URL.Path)
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]string{
					"detail":     "too many requests",
					"request_id": requestid.FromRequest(r),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
