package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"whereabouts/internal/middleware"
)

// RouterConfig carries the knobs the HTTP stack needs.
type RouterConfig struct {
	IdentityHeader     string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// NewRouter mounts the full HTTP surface: a public health check and
// the authenticated /v1 API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.IdentityHeader == "" {
		cfg.IdentityHeader = middleware.DefaultIdentityHeader
	}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", cfg.IdentityHeader, "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.IdentityHeader))
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				Burst:             cfg.RateLimitBurst,
			}))
		}

		r.Put("/location", h.PutLocation)
		r.Get("/locations", h.ListLocations)
		r.Get("/locations/watch", h.WatchLocations)

		r.Get("/shares", h.GetShares)
		r.Put("/shares/{grantee}", h.PutShare)
		r.Delete("/shares/{grantee}", h.DeleteShare)

		r.Put("/sharing", h.PutSharing)
	})

	return r
}
