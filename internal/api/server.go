// Package api provides the HTTP API server and handlers for the debate
// matchmaking service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Liiiii222/debate/internal/config"
	"github.com/Liiiii222/debate/internal/ratelimit"
	"github.com/Liiiii222/debate/internal/realtime"
	"github.com/Liiiii222/debate/internal/service"
	"github.com/Liiiii222/debate/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	matchmaking *service.MatchmakingService
	invitations *service.InvitationService
	relay       *realtime.Handler
	limiter     *ratelimit.KeyedRateLimiter
	validator   *validation.Validator
	router      *chi.Mux
	logger      *slog.Logger
	startedAt   time.Time
	frontendURL string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	matchmaking *service.MatchmakingService,
	invitations *service.InvitationService,
	relay *realtime.Handler,
	limiter *ratelimit.KeyedRateLimiter,
	validator *validation.Validator,
	cfg config.ServerConfig,
	logger *slog.Logger,
) *Server {
	s := &Server{
		matchmaking: matchmaking,
		invitations: invitations,
		relay:       relay,
		limiter:     limiter,
		validator:   validator,
		router:      chi.NewRouter(),
		logger:      logger,
		startedAt:   time.Now().UTC(),
		frontendURL: cfg.FrontendURL,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check, outside the rate limit.
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/matchmaking", func(r chi.Router) {
			r.Post("/", s.handleFindMatch)
			r.Get("/stats", s.handleStats)
			r.Put("/{sessionID}/active", s.handleHeartbeat)
			r.Delete("/{sessionID}", s.handleEndSession)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/", s.handleCreateInvitation)
			r.Get("/pending", s.handleListPending)
			r.Get("/active", s.handleListActive)
			r.Put("/{invitationID}/accept", s.handleAcceptInvitation)
			r.Put("/{invitationID}/decline", s.handleDeclineInvitation)
		})

		r.Mount("/realtime", s.relay.Routes())
	})
}
