// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Gist of what's happening:
//
// We're using Gin's Engine (gin.New()) which provides:
// - A router with middleware support
// - HTTP handler implementation (ServeHTTP)
// - Recovery middleware for handling panics
// And then we add the logging middleware.
//
// The engine is assigned to http.Server.Handler so shutdown follows the
// agent's context. Requests that match no lifeline route fall through to the
// reverse proxy when one is configured.

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/logger"
)

const shutdownTimeout = 10 * time.Second

// Handlers are the components served by the agent; nil ones are not routed
type Handlers struct {
	Monitor  Monitor
	Banners  BannerSource
	Messages http.Handler
	Metrics  http.Handler
	Proxy    http.Handler
}

type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger logger.Logger
}

// SetMode switches gin to release mode for production environments
func SetMode(environment string) {
	switch environment {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

func New(port int, h Handlers, l logger.Logger) *Server {
	// Create engine without middleware
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID(), LoggerMiddleware(l))

	registerRoutes(engine, h)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: l,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ServerStart).WithMetadata("addr", s.srv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Channel to catch server errors
	errChan := make(chan error, 1)

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	s.logger.Info("Server listening", "addr", ln.Addr().String())

	// Wait for either server error or context cancellation
	select {
	case err := <-errChan:
		return errors.Wrap(err, errors.ServerStart).WithMetadata("addr", ln.Addr().String())
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ServerShutdown)
	}
	s.logger.Info("Server stopped")
	return nil
}
