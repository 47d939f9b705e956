package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes cross-cutting middleware.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that sets them.
	TrustProxyHeaders bool
}

// NewRouter mounts h under /api/v1/users.
func NewRouter(h *Handler, opts RouterOptions, log logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(log.With("module", "http")))
	r.Use(middleware.Recoverer)

	limiter := NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/register", h.Register)
			r.Post("/activate", h.Activate)
			r.Post("/resend-activation", h.ResendActivation)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apiError{"DM_REG_0404", http.StatusNotFound, "not_found", "Not found", "Check the request path"})
	})

	return r
}
