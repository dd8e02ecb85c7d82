package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
)

// RouterConfig holds the HTTP concerns that sit in front of the handlers
type RouterConfig struct {
	CORSAllowOrigins  []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// MCP, when set, is mounted at /mcp
	MCP http.Handler
}

// NewRouter creates the chi router with middleware and routes
func NewRouter(h *APIHandlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Cache-Control", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"X-Process-Time", "Retry-After", "Mcp-Session-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/api/health", h.Health)
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)

	r.Route("/api/draft", func(r chi.Router) {
		r.Get("/state", h.GetDraftState)
		r.Get("/current-team", h.CurrentTeam)
		r.Get("/recommendations", h.Recommendations)
		r.Get("/settings", h.LeagueSettings)
		r.Get("/history", h.DraftHistory)
		r.Get("/teams/{teamID}/roster", h.TeamRoster)
		r.Post("/initialize", h.InitializeDraft)
		r.Post("/reset", h.ResetDraft)

		r.Group(func(r chi.Router) {
			if cfg.RateLimitEnabled {
				r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
			}
			r.Post("/pick", h.DraftPick)
		})
	})

	r.Get("/api/players", h.ListPlayers)
	r.Get("/api/players/{playerID}/adp", h.PlayerADPHistory)
	r.Get("/api/events", h.EventsSSE)

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	return r
}
