// Package api exposes the installer over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/essentials/http/middleware"
	"github.com/leeforge/essentials/http/responder"
	"github.com/leeforge/essentials/installer"
	"github.com/leeforge/essentials/logging"
	"github.com/leeforge/essentials/plugin"
	"go.uber.org/zap"
)

// Rebuilder publishes persisted states to the deployed application.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// Config holds configuration for creating a Server.
type Config struct {
	Machine   *installer.StateMachine // required
	Plugins   *plugin.Set             // required
	Rebuilder Rebuilder
	Metrics   http.Handler
	Logger    *zap.Logger
}

// Server serves the installer API. Installer calls are serialized: the
// state machine and the shared descriptors are not safe for concurrent use.
type Server struct {
	machine   *installer.StateMachine
	plugins   *plugin.Set
	rebuilder Rebuilder
	metrics   http.Handler
	logger    *zap.Logger

	mu sync.Mutex
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		machine:   cfg.Machine,
		plugins:   cfg.Plugins,
		rebuilder: cfg.Rebuilder,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceID)
	r.Use(middleware.Timing)
	r.Use(logging.HTTPMiddleware(s.logger))
	r.Use(logging.RecoveryMiddleware)

	r.NotFound(responder.RouteNotFound)
	r.MethodNotAllowed(responder.MethodNotAllowed)

	r.Get("/healthz", s.health)
	r.Route("/plugins", func(r chi.Router) {
		r.Get("/", s.listPlugins)
		r.Get("/{id}", s.getPlugin)
		r.Post("/{id}/install", s.install)
		r.Post("/{id}/parameters", s.installWithParameters)
	})
	r.Post("/restart", s.restart)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	responder.OK(w, r, map[string]any{"ok": true})
}
