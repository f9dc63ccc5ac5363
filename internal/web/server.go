// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package web exposes the Keygate identity API over HTTP/JSON:
// registration, login, and token-gated protected routes.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/observability"
)

// Config holds the API server dependencies.
type Config struct {
	// Addr is the listen address in "host:port" format.
	Addr string

	// Auth runs the registration and login flows.
	Auth *auth.Service

	// Tokens verifies bearer tokens for the access guard.
	Tokens *auth.TokenService

	// Metrics records request outcomes.
	Metrics *observability.Metrics

	// Logger receives request logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	auth       *auth.Service
	tokens     *auth.TokenService
	metrics    *observability.Metrics
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("token service is required")
	}
	if cfg.Metrics == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("metrics are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    cfg.Addr,
		auth:    cfg.Auth,
		tokens:  cfg.Tokens,
		metrics: cfg.Metrics,
		logger:  logger,
	}, nil
}

// Handler returns the full request handler, including middleware.
// Exposed so tests can drive the API through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("GET /home", s.requireAuth(http.HandlerFunc(s.handleHome)))

	return s.logRequests(s.cors(mux))
}

// Start begins serving the API. It returns an error channel that
// receives any serve failure after startup; the channel is closed when
// the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty when
// not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
