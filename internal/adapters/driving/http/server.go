package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodia-labs/tokenbridge/internal/core/ports/driving"
)

// DefaultSecretHeader carries the lookup secret when none is configured.
const DefaultSecretHeader = "X-Bridge-Secret"

// shutdownTimeout bounds how long in-flight requests get to drain.
const shutdownTimeout = 30 * time.Second

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	secretHeader string
	botName      string
	logger       logrus.FieldLogger

	// Services
	bridge driving.BridgeService

	// Infrastructure
	store Pinger // durable store health check
}

// Config holds server configuration
type Config struct {
	// Addr is the host:port to listen on.
	Addr    string
	Version string

	// SecretHeader names the header carrying the lookup secret.
	SecretHeader string

	// BotName is the Telegram bot the login page deep-links to. When empty
	// the page shows the /start command instead.
	BotName string

	Logger logrus.FieldLogger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:         "0.0.0.0:8080",
		Version:      "dev",
		SecretHeader: DefaultSecretHeader,
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, bridge driving.BridgeService, store Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	secretHeader := cfg.SecretHeader
	if secretHeader == "" {
		secretHeader = DefaultSecretHeader
	}

	s := &Server{
		router:       http.NewServeMux(),
		version:      cfg.Version,
		secretHeader: secretHeader,
		botName:      cfg.BotName,
		logger:       logger.WithField("component", "http"),
		bridge:       bridge,
		store:        store,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	noCache := NoCache

	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// OAuth flow
	s.router.HandleFunc("GET /authorize", s.handleAuthorize)
	s.router.Handle("GET /login", noCache(http.HandlerFunc(s.handleLogin)))

	// Linking and lookup
	s.router.Handle("POST /api/v1/link", noCache(http.HandlerFunc(s.handleLink)))
	s.router.Handle("GET /api/v1/link", noCache(http.HandlerFunc(s.handleLink)))
	s.router.Handle("GET /api/v1/tokens", noCache(http.HandlerFunc(s.handleLookup)))
}

// Handler returns the router wrapped in the request middleware chain.
func (s *Server) Handler() http.Handler {
	recovery := NewRecoveryMiddleware(s.logger)
	logging := NewLoggingMiddleware(s.logger)
	return RequestID(logging.Handler(recovery.Handler(s.router)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("starting server")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
