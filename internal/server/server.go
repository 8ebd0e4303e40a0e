// Package server runs the HTTP server in front of the login flow.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/brizzai/miniauth/internal/auth"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/metrics"
	"github.com/brizzai/miniauth/internal/server/handler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// defaultShutdownTimeout is the maximum time to wait for server shutdown
	defaultShutdownTimeout = 5 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Server serves the login API
type Server struct {
	config  *config.ServerConfig
	handler *handler.Handler
}

type Params struct {
	fx.In

	Config  *config.ServerConfig
	Auth    *auth.Service
	Metrics *metrics.Metrics `optional:"true"`
}

// NewServer creates a new server instance with the provided configuration.
func NewServer(p Params) *Server {
	m := p.Metrics
	if !p.Config.Metrics {
		m = nil
	}
	return &Server{
		config:  p.Config,
		handler: handler.NewHandler(p.Auth, m),
	}
}

// Addr is the listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler.CreateHTTPHandler()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server", zap.String("address", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		logger.Info("Shutting down server", zap.Duration("timeout", timeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// Module provides the server dependencies
var Module = fx.Module("server",
	fx.Provide(
		NewServer,
	),
)
