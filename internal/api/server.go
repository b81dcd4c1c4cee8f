package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/wonny/bazaar/pkg/config"
	"github.com/wonny/bazaar/pkg/logger"
)

// Server is the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	bound      atomic.Pointer[string]
}

// New creates a server listening on cfg.Port. Port "0" picks a free port.
func New(cfg *config.Config, log *logger.Logger, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      2 * time.Minute, // POST /api/refresh waits for a full cycle
			IdleTimeout:       60 * time.Second,
		},
		logger: log.Component("server"),
	}
}

// Addr returns the bound address once listening, the configured one before
func (s *Server) Addr() string {
	if addr := s.bound.Load(); addr != nil {
		return *addr
	}
	return s.httpServer.Addr
}

// Start listens and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	addr := ln.Addr().String()
	s.bound.Store(&addr)
	s.logger.WithField("addr", addr).Info("API server listening")

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
