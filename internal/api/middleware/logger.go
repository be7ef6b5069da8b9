package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	sharedlogger "fleetsync/internal/shared/logger"
)

// RequestLogger attaches a logger carrying the request id to the context so
// handlers can log with it.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if id := middleware.GetReqID(r.Context()); id != "" {
				l = base.With("request_id", id)
			}
			next.ServeHTTP(w, r.WithContext(sharedlogger.WithContext(r.Context(), l)))
		})
	}
}
