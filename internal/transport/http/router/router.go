// Package router assembles the HTTP surface: middleware chain, public
// routes, and the authenticated API.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentbook/internal/platform/metrics"
	"agentbook/internal/platform/middleware"
	"agentbook/internal/transport/http/shared"
)

const requestTimeout = 60 * time.Second

// Registerer mounts a handler's routes on a router.
type Registerer interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Deps carries everything the router wires together.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	JWT     middleware.JWTValidator

	// Public mounts routes outside RequireAuth (login).
	Public []func(r chi.Router)
	// Protected handlers mount behind RequireAuth.
	Protected []Registerer
	// ProtectedRoutes mounts extra authenticated routes that are not full
	// Registerers (auth's own /auth/me, /auth/password).
	ProtectedRoutes []func(r chi.Router)

	// Health checks run on /healthz; a failing check turns the endpoint 503.
	Health map[string]HealthChecker
}

// New builds the chi router.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, mount := range deps.Public {
		mount(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWT, deps.Logger))
		for _, h := range deps.Protected {
			h.Register(r)
		}
		for _, mount := range deps.ProtectedRoutes {
			mount(r)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				result[name] = err.Error()
				result["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "ok"
		}
		shared.WriteJSON(w, status, result)
	}
}
