package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeeshanhm/zara/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of the servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 10 * time.Second
	metricsIdleTimeout  = 60 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g. ":9090").
	Addr string

	// Provider supplies the Prometheus exporter backing /metrics.
	Provider *instrumentation.Provider
}

// MetricsServer serves Prometheus metrics on a dedicated port, keeping
// operational data off the chat listener.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer creates a metrics server exposing /metrics for
// Prometheus scraping. The instrumentation provider must be enabled.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Provider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.Provider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	return &MetricsServer{addr: config.Addr}, nil
}

// Start starts the metrics server and blocks until it stops. Run it in a
// goroutine for non-blocking operation.
func (s *MetricsServer) Start() error {
	s.buildServer()
	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// StartWithReadySignal starts the metrics server and closes ready once the
// listener is accepting connections, then blocks like Start.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	s.buildServer()
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics server: listen on %s: %w", s.addr, err)
	}
	slog.Info("starting metrics server", "addr", s.addr)
	close(ready)
	return s.httpServer.Serve(listener)
}

func (s *MetricsServer) buildServer() {
	mux := http.NewServeMux()

	// The OpenTelemetry prometheus exporter registers with the global
	// Prometheus registry, which promhttp.Handler() exposes.
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
