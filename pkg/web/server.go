package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modgate/modgate/pkg/auth"
	"github.com/modgate/modgate/pkg/observability"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/storage"
	"github.com/modgate/modgate/pkg/writer"
)

// Config holds explorer server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// ExplorerEnabled mounts the /v1 module endpoints and /openapi.json.
	// Health and metrics endpoints are always served.
	ExplorerEnabled bool

	// AllowExecute enables POST /v1/modules/{id}/call.
	AllowExecute bool

	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string

	// OpenAPIInfo populates the info block of the generated document.
	OpenAPIInfo writer.Info

	// MCPHandler, when non-nil, is mounted at MCPPath to serve MCP over
	// streamable HTTP alongside the explorer API.
	MCPHandler http.Handler
	MCPPath    string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		ExplorerEnabled: true,
		MetricsPath:     "/metrics",
		OpenAPIInfo:     writer.Info{Title: "modgate", Version: "0.1.0"},
	}
}

// Server wraps an http.Server serving the explorer API and manages the
// full lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	config     Config
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer assembles the explorer API over the given registry.
// The store is optional and only used for readiness checks; pass nil for
// in-memory deployments. The auth chain is optional; pass nil to serve
// unauthenticated.
func NewServer(cfg Config, reg *registry.Registry, store storage.Store, chain *auth.AuthChain, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      buildHandler(cfg, reg, store, chain),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// buildHandler wires routes and middleware into a single http.Handler.
func buildHandler(cfg Config, reg *registry.Registry, store storage.Store, chain *auth.AuthChain) http.Handler {
	e := &explorer{
		registry:     reg,
		store:        store,
		allowExecute: cfg.AllowExecute,
		openAPIInfo:  cfg.OpenAPIInfo,
	}

	mux := http.NewServeMux()
	if cfg.ExplorerEnabled {
		mux.HandleFunc("GET /v1/modules", e.handleListModules)
		mux.HandleFunc("GET /v1/modules/{id}", e.handleGetModule)
		mux.HandleFunc("POST /v1/modules/{id}/call", e.handleCallModule)
		mux.HandleFunc("GET /openapi.json", e.handleOpenAPI)
	}
	mux.HandleFunc("GET /healthz", e.handleHealthz)
	mux.HandleFunc("GET /readyz", e.handleReadyz)

	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	if cfg.MCPHandler != nil {
		path := cfg.MCPPath
		if path == "" {
			path = "/mcp"
		}
		mux.Handle(path, cfg.MCPHandler)
	}

	var handler http.Handler = mux
	if chain != nil {
		bypass := auth.DefaultBypassEndpoints
		if cfg.MetricsPath != "" && cfg.MetricsPath != "/metrics" {
			bypass = append(append([]string{}, bypass...), cfg.MetricsPath)
		}
		handler = auth.Middleware(chain, bypass)(handler)
	}

	return Chain(
		Recovery(),
		RequestID(),
		Logging(nil),
		observability.MetricsMiddleware,
	)(handler)
}

// Handler returns the fully assembled http.Handler. Used for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server and blocks until the context is
// cancelled or a shutdown signal (SIGINT or SIGTERM) is received. It then
// gracefully shuts down, waiting for in-flight requests to complete within
// the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("explorer server starting", slog.String("addr", s.config.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
