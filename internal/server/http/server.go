// Package httpserver exposes the JSON API consumed by the web frontend.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/karlsjo/sustainlog/internal/service"
)

// Config holds the HTTP-facing settings.
type Config struct {
	Addr           string
	CORSOrigins    []string
	MaxUploadBytes int64
}

// Server wires the action service into HTTP handlers.
type Server struct {
	cfg        Config
	actions    service.ActionService
	signKey    []byte
	log        *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New constructs a server with injected dependencies.
func New(cfg Config, actions service.ActionService, signKey []byte, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	s := &Server{cfg: cfg, actions: actions, signKey: signKey, log: log}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(middleware.Timeout(60 * time.Second))

	// The frontend origin allowlist mirrors the sessions' origin checks.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.requireOwner)
			r.Post("/actions", s.handleCreateAction)
			r.Get("/timeline", s.handleTimeline)
		})
		r.Get("/public/timeline/{slug}", s.handlePublicTimeline)
		r.Get("/companies", s.handleCompanies)
	})

	return r
}

// Router returns the configured router (used by handler tests).
func (s *Server) Router() chi.Router { return s.router }

// Start begins serving and blocks until the listener fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
