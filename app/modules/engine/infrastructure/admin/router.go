package engineadmin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mount registers /metrics and the /admin routes on r. The admin routes sit
// behind the token check and a per-caller rate limit.
func Mount(r chi.Router, h *Handlers, verifier Verifier, limiter *CallerLimiter, registry *prometheus.Registry, logger *slog.Logger) {
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(verifier, logger))
		r.Use(RateLimit(limiter, logger))

		r.Post("/games/{gameID}/finalize", h.FinalizeGame)
		r.Put("/clock", h.SetClock)
		r.Delete("/clock", h.ClearClock)
		r.Post("/rewind", h.Rewind)
		r.Post("/tournament/start", h.StartTournament)
		r.Get("/status", h.Status)
	})
}

// NewRouter builds the admin HTTP handler.
func NewRouter(h *Handlers, verifier Verifier, limiter *CallerLimiter, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	Mount(r, h, verifier, limiter, registry, logger)
	return r
}
