package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"user-management-api/internal/middleware"
	"user-management-api/internal/response"
)

// HealthCheck reports whether a backing service answers.
type HealthCheck func(ctx context.Context) error

type MuxOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck
}

// NewMux wraps the dispatcher with the HTTP middleware stack and serves /health beside it.
func NewMux(dispatcher http.Handler, opts MuxOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(opts.CORSOrigins))

	r.Get("/health", health(opts.Checks))

	r.Group(func(app chi.Router) {
		app.Use(middleware.Timeout(opts.RequestTimeout))
		app.Handle("/*", dispatcher)
	})

	return r
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("health check failed", "check", name, "error", err)
				failed[name] = "down"
			}
		}

		if len(failed) > 0 {
			response.JSON(w, http.StatusServiceUnavailable, "unavailable", failed)
			return
		}
		response.JSON(w, http.StatusOK, "ok", nil)
	}
}
