package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tamgu/internal/config"
	"tamgu/internal/logger"
	"tamgu/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	ws         *workspace.Controller
	config     config.Server
	model      string
	log        *slog.Logger
}

// New creates a new HTTP server over a workspace. model is reported by /health.
func New(ws *workspace.Controller, cfg config.Server, model string) *Server {
	s := &Server{
		router: chi.NewRouter(),
		ws:     ws,
		config: cfg,
		model:  model,
		log:    logger.Get(),
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// AI calls are bounded by their own deadline; this only catches stuck requests
	timeout := s.config.WriteTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	s.router.Use(middleware.Timeout(timeout))
	s.router.Use(securityHeaders)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(noCache)

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.handleListArticles)
			r.Delete("/", s.handleClearArticles)
			r.Post("/generate", s.handleGenerateArticle)
			r.Post("/{id}/select", s.handleSelectArticle)
		})

		r.Get("/difficulty", s.handleGetDifficulty)
		r.Put("/difficulty", s.handleSetDifficulty)

		r.Route("/worksheet", func(r chi.Router) {
			r.Get("/", s.handleGetWorksheet)
			r.Patch("/", s.handleUpdateAnswer)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/save", s.handleSave)
		})

		r.Get("/keywords", s.handleGetKeywords)
		r.Post("/keywords/refresh", s.handleRefreshKeywords)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
			r.Post("/{id}/open", s.handleOpenDocument)
		})
	})

	s.router.Get("/worksheet/print", s.handlePrintWorksheet)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
