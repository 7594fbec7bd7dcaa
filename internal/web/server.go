// Package web wires the HTTP JSON API: router, middleware and lifecycle.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/auth"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/config"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/metrics"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/handlers"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/middleware"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

// Server represents the web server
type Server struct {
	db          *database.DB
	port        int
	bind        string
	allowedNet  *net.IPNet
	router      *chi.Mux
	authService *auth.Service
	sseBroker   *sse.Broker
	metrics     *metrics.Metrics
	handlers    *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db *database.DB, itemBank *bank.Bank, port int, bind string, allowedNet *net.IPNet, isDev bool) *Server {
	s := &Server{
		db:          db,
		port:        port,
		bind:        bind,
		allowedNet:  allowedNet,
		router:      chi.NewRouter(),
		authService: auth.NewService(db),
		sseBroker:   sse.NewBroker(),
	}
	s.metrics = metrics.New(s.sseBroker.ClientCount)

	loader := config.NewLoader(db)
	s.handlers = handlers.New(db, s.authService, itemBank, s.sseBroker, s.metrics, loader, isDev)

	s.setupRoutes()
	return s
}

// SSEBroker returns the SSE broker for broadcasting events
func (s *Server) SSEBroker() *sse.Broker {
	return s.sseBroker
}

// Metrics returns the instrumentation registry wrapper
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Handlers returns the handler set
func (s *Server) Handlers() *handlers.Handlers {
	return s.handlers
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	// Global middleware (applied to all routes, except timeout which is per-group)
	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(s.metrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	// Note: Timeout middleware is applied per-group, not globally, to allow SSE long-lived connections

	// SSE endpoint - no timeout (long-lived connections)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(s.authService))
		r.Get("/api/events", s.sseBroker.ServeHTTP)
	})

	// Public routes (no auth required)
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/api/health", h.Health)
		r.Handle("/metrics", s.metrics.Handler())

		// Setup only works while no teacher account exists
		r.Post("/api/setup", h.Setup)

		// Login is rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/api/login", h.Login)
		})
	})

	// Student routes - open once setup is done, identified by student code
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.RequireSetup(s.db))

		r.Get("/api/lernfelder", h.ListLernfelder)
		r.Get("/api/lernfelder/{lf}", h.GetLernfeld)

		r.Post("/api/students", h.RegisterStudent)
		r.Get("/api/students/{code}/lernfelder/{lf}/recommendations", h.StudentRecommendations)

		r.Route("/api/diagnostics", func(r chi.Router) {
			r.Post("/", h.OpenDiagnostic)
			r.Get("/{id}", h.GetDiagnostic)
			r.Post("/{id}/submit", h.SubmitDiagnostic)
		})

		r.Route("/api/practice", func(r chi.Router) {
			r.Post("/items", h.PracticeItems)
			r.Post("/submit", h.SubmitPractice)
		})
	})

	// Teacher routes (session auth required)
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.SessionAuth(s.authService))

		r.Post("/api/logout", h.Logout)
		r.Get("/api/me", h.Me)
		r.Post("/api/me/password", h.ChangePassword)

		r.Route("/api/teacher", func(r chi.Router) {
			r.Get("/students", h.ListStudents)
			r.Get("/lernfelder/{lf}/overview", h.DiagOverview)
			r.Get("/lernfelder/{lf}/practice-stats", h.PracticeStats)
			r.Get("/lernfelder/{lf}/items", h.ListItems)
			r.Post("/items/import", h.ImportItems)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)
		})
	})
}

// Start starts the web server
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// WriteTimeout disabled (0) to allow SSE long-lived connections
		// Chi middleware timeout (60s) protects regular requests
		WriteTimeout: 0,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		// Stop SSE broker first to close all client connections gracefully
		s.sseBroker.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
