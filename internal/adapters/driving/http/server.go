package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
	"github.com/edustack-labs/meetlink/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	connectionService driving.ConnectionService

	// Infrastructure
	authAdapter driven.AuthAdapter
	db          Pinger // PostgreSQL health check
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	connectionService driving.ConnectionService,
	authAdapter driven.AuthAdapter,
	db Pinger,
) *Server {
	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		connectionService: connectionService,
		authAdapter:       authAdapter,
		db:                db,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authAdapter)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Provider redirect target (public; identity comes from the state)
	s.router.HandleFunc("GET /api/v1/meet/callback", s.handleCallback)

	// Connection endpoints (authenticated)
	s.router.Handle("POST /api/v1/meet/connect",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleConnect)))
	s.router.Handle("GET /api/v1/meet/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleStatus)))
	s.router.Handle("DELETE /api/v1/meet/connection",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDisconnect)))

	// Internal token endpoint for sibling services scheduling classes
	s.router.Handle("POST /api/v1/meet/token",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleToken)))
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until an interrupt, then shuts down gracefully
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
