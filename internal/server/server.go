// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the dispatcher over HTTP for remote workflow
// engines.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	httpaction "github.com/tombee/callout/internal/action/http"
	calloutlog "github.com/tombee/callout/internal/log"
	"github.com/tombee/callout/internal/tracing"
)

// VersionInfo is reported by GET /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Options configures a Server.
type Options struct {
	// Listen is the TCP address to bind.
	Listen string

	// RateLimit is the sustained dispatch requests per second; RateBurst
	// the bucket size. A non-positive RateLimit disables limiting.
	RateLimit float64
	RateBurst int

	// Action performs the calls. Required.
	Action *httpaction.HTTPAction

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// Tracer records one server span per request (optional).
	Tracer trace.Tracer

	// Logger receives request logs (default: slog.Default()).
	Logger *slog.Logger

	// Version is reported by GET /version.
	Version VersionInfo
}

// Server manages the lifecycle of the dispatch HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger
	server *http.Server

	mu sync.RWMutex
	ln net.Listener
}

// New creates a new server. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Action == nil {
		return nil, errors.New("server: http action is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = calloutlog.WithComponent(logger, "server")

	s := &Server{
		opts:   opts,
		logger: logger,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied.
// Correlation runs first so every later layer sees the ID.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var dispatch http.Handler = http.HandlerFunc(s.handleDispatch)
	if s.opts.RateLimit > 0 {
		dispatch = RateLimit(s.opts.RateLimit, s.opts.RateBurst)(dispatch)
	}
	mux.Handle("POST /v1/dispatch", dispatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}

	var h http.Handler = mux
	h = calloutlog.HTTPMiddleware(s.logger)(h)
	h = tracing.ServerMiddleware(s.opts.Tracer)(h)
	h = tracing.CorrelationMiddleware(h)
	return h
}

// Start listens on the configured address and serves until ctx is
// cancelled or serving fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("dispatch server starting",
		slog.String("listen_addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("dispatch server shutting down")

	s.server.SetKeepAlivesEnabled(false)

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("dispatch server shutdown error", calloutlog.Error(err))
		return err
	}

	s.logger.Info("dispatch server stopped")
	return nil
}

// Run starts the server and shuts it down within shutdownTimeout once ctx
// is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Addr returns the listener address, or empty string if not started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
