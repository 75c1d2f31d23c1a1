// Package api wires the HTTP surface: routing, middleware, and handlers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentdesk/internal/auth"
	"rentdesk/internal/common/config"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/observability"
)

type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Properties   *PropertyHandler
	Applications *ApplicationHandler
	Profiles     *ProfileHandler
}

func NewServer(cfg config.ServerConfig, gate *auth.Gate, handlers Handlers, obs *observability.Observability, log logger.Logger) *Server {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	r.Use(requestLogger(log))
	r.Use(requestMetrics(obs))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", handlers.Properties.Search)
		r.Get("/{propertyId}", handlers.Properties.Get)
		r.With(gate.Require("manager")).Post("/", handlers.Properties.Create)
	})

	r.Route("/applications", func(r chi.Router) {
		r.With(gate.Require("manager", "tenant")).Get("/", handlers.Applications.List)
		r.With(gate.Require("tenant")).Post("/", handlers.Applications.Create)
		r.With(gate.Require("manager")).Patch("/{applicationId}/status", handlers.Applications.UpdateStatus)
	})

	r.Route("/managers", func(r chi.Router) {
		r.With(gate.Require("manager")).Post("/", handlers.Profiles.CreateManager)
		r.With(gate.Require("manager")).Get("/{managerId}", handlers.Profiles.GetManager)
		r.With(gate.Require("manager")).Put("/{managerId}", handlers.Profiles.UpdateManager)
		r.With(gate.Require("manager")).Get("/{managerId}/properties", handlers.Properties.ListByManager)
	})

	r.Route("/tenants", func(r chi.Router) {
		r.With(gate.Require("tenant")).Post("/", handlers.Profiles.CreateTenant)
		r.With(gate.Require("tenant")).Get("/{tenantId}", handlers.Profiles.GetTenant)
		r.With(gate.Require("tenant")).Put("/{tenantId}", handlers.Profiles.UpdateTenant)
		r.With(gate.Require("tenant")).Get("/{tenantId}/current-residences", handlers.Profiles.CurrentResidences)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		logger: log,
	}
}

// Handler exposes the routed mux, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", map[string]interface{}{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server", nil)
	return s.httpServer.Shutdown(ctx)
}
