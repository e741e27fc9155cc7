package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/config"
	"github.com/hongminglow/earn-portal/internal/http/handlers"
	"github.com/hongminglow/earn-portal/internal/http/respond"
	"github.com/hongminglow/earn-portal/internal/metrics"
	"github.com/hongminglow/earn-portal/internal/middleware"
	"github.com/hongminglow/earn-portal/internal/promo"
	"github.com/hongminglow/earn-portal/internal/session"
)

// Deps are the collaborators the routes need.
type Deps struct {
	API      handlers.API
	Sessions *session.Manager
	Views    handlers.Renderer
	Counters *promo.Simulator
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// upstream calls are bounded by API_TIMEOUT_SECONDS
		WriteTimeout: cfg.APITimeout*2 + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the full route tree.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))

	out := respond.New(deps.Logger.Named("respond"))

	handlers.NewHealthHandler(time.Now(), deps.Counters, out).Register(r)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	landing := handlers.NewLandingHandler(deps.Counters, deps.Metrics, deps.Sessions, deps.Views, out, handlers.Links{
		Buy:      cfg.BuyURL,
		PromoBuy: cfg.PromoBuyURL,
	})
	landing.Register(r)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORSOrigins))
		landing.RegisterAPI(r)
	})

	handlers.NewAuthHandler(deps.API, deps.Sessions, deps.Views, deps.Logger).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Sessions))
		handlers.NewDashboardHandler(deps.API, deps.Sessions, deps.Views, deps.Logger, cfg.PublicBaseURL).Register(r)
		handlers.NewWithdrawHandler(deps.API, deps.Sessions, deps.Views, deps.Logger).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Sessions))
			handlers.NewAdminHandler(deps.API, deps.Sessions, deps.Views, deps.Logger).Register(r)
		})
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
