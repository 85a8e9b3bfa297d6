// Package server serves the health, status and metrics endpoints of the
// sync loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"ovpnsync/internal/config"
	"ovpnsync/internal/metrics"
	"ovpnsync/internal/server/api"
	av1 "ovpnsync/internal/server/api/v1"
)

// Server is the status HTTP server
type Server struct {
	config *config.StatusConfig
	logger *zap.Logger
	server *http.Server
	addr   net.Addr
	wg     sync.WaitGroup
}

// New creates a status server. m is exposed on /metrics when
// cfg.Metrics is set.
func New(cfg *config.StatusConfig, status av1.StatusProvider, m *metrics.Metrics, logger *zap.Logger, opts ...api.Option) *Server {
	if !cfg.Metrics {
		m = nil
	}
	router := api.NewRouter(status, m, logger, opts...)

	return &Server{
		config: cfg,
		logger: logger,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           router.Handler(),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.addr = ln.Addr()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("Status server listening", zap.String("addr", s.addr.String()))
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.wg.Wait()
	return nil
}
