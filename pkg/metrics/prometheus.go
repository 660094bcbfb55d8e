package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvmgo/dvmfne/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler is a thin wrapper around promhttp.HandlerFor bound to
// a Collector's own registry, following USA-RedDragon-DMRHub's
// metrics.Metrics/promhttp.Handler() exposition pattern.
type PrometheusHandler struct {
	http.Handler
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{
		Handler:   promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}),
		collector: collector,
	}
}

// PrometheusServer is an HTTP server for Prometheus metrics
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	// Use a listener to get the actual port (useful for testing with port 0)
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler: mux,
	}

	s.log.Info("Starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
