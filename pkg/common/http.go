// Package common provides the shared HTTP server shell and metrics.
package common

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps an HTTP server with health, readiness and metrics
// endpoints.
type Server struct {
	router  *gin.Engine
	server  *http.Server
	metrics *Metrics
	name    string
}

// NewServer creates a new HTTP server with standard endpoints. Gin's
// mode is left to the caller.
func NewServer(name string, port int) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:  router,
		name:    name,
		metrics: NewMetrics(name),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}

	s.registerStandardEndpoints()

	return s
}

// registerStandardEndpoints adds health, ready, and metrics endpoints.
func (s *Server) registerStandardEndpoints() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/ready", s.readyHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"component": s.name,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) readyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":     true,
		"component": s.name,
		"timestamp": time.Now().UTC(),
	})
}

// Router returns the underlying gin router for adding custom routes.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Metrics returns the server's metrics instance.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.metrics.SetReady()
	slog.Info("Starting server", "component", s.name, "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.metrics.SetNotReady()
	slog.Info("Shutting down server", "component", s.name)
	return s.server.Shutdown(ctx)
}

// RunWithGracefulShutdown starts the server and blocks until a
// termination signal arrives, then drains outstanding requests.
func (s *Server) RunWithGracefulShutdown() {
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "component", s.name, "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal", "component", s.name)

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "component", s.name, "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped", "component", s.name)
}
