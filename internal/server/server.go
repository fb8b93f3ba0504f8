// Package server is the read-only debug/inspection HTTP surface: UE
// table listing, per-UE detail, and UE counts by RRC state (/mac/stats).
// It carries no
// write endpoints — every state change in this core arrives over the
// RRC/NAS plane, never over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
)

// Server is the debug HTTP server.
type Server struct {
	config    *config.Config
	router    *chi.Mux
	server    *http.Server
	logger    *zap.Logger
	ues       *ue.Table
	scheduler *mac.Scheduler
}

// NewServer builds the debug server; it does not start listening until
// Start is called.
func NewServer(cfg *config.Config, ues *ue.Table, scheduler *mac.Scheduler, logger *zap.Logger) *Server {
	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		ues:       ues,
		scheduler: scheduler,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/ues", func(r chi.Router) {
		r.Get("/", s.handleListUEs)
		r.Get("/{urnti}", s.handleGetUE)
	})

	s.router.Get("/mac/stats", s.handleMACStats)
}

// Start blocks serving HTTP until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("starting debug HTTP server", zap.String("address", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping debug HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]interface{}{"status": status, "title": message}
	if err != nil {
		resp["detail"] = err.Error()
	}
	s.respondJSON(w, status, resp)
}
