// Package server exposes the merged collections over a read-only JSON API.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/metrics"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	config    Config
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a server. m may be nil.
func New(cfg Config, m *metrics.Metrics, logger *zerolog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = defaults.PathPrefix
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	return &Server{
		config:    cfg,
		metrics:   m,
		logger:    logging.OrNop(logger),
		startTime: time.Now(),
	}
}

// Handler returns the router with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Serve listens on the configured address until ctx is canceled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.NewConfigError("server", "listen on "+s.config.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Collections API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("Shutting down collections API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
