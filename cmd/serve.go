package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeeshanhm/zara/internal/agent"
	"github.com/zeeshanhm/zara/internal/calendar"
	"github.com/zeeshanhm/zara/internal/google"
	"github.com/zeeshanhm/zara/internal/instrumentation"
	"github.com/zeeshanhm/zara/internal/logging"
	"github.com/zeeshanhm/zara/internal/server"
)

// serveOptions holds the flag values for the serve command.
type serveOptions struct {
	addr            string
	model           string
	temperature     float64
	credentialsFile string
	tokenFile       string
	metricsEnabled  bool
	metricsAddr     string
	debug           bool
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket chat server",
		Long: `Start the assistant as a WebSocket server. Clients connect to /ws and
exchange JSON messages; the assistant answers through the configured
language model and performs calendar operations on the owner's behalf.

Requires OPENAI_API_KEY in the environment and a Google OAuth token
obtained via "zara auth".`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "Chat server listen address. Can also use ZARA_ADDR env var.")
	cmd.Flags().StringVar(&opts.model, "model", agent.DefaultModel, "Chat model name. Can also use OPENAI_MODEL env var.")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", 0.7, "Sampling temperature for completions")
	cmd.Flags().StringVar(&opts.credentialsFile, "credentials", google.DefaultCredentialsFile(), "Path to the Google OAuth client secret file")
	cmd.Flags().StringVar(&opts.tokenFile, "token-file", google.DefaultTokenFile(), "Path to the cached Google OAuth token")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogging(opts.debug)

	if opts.addr == server.DefaultAddr {
		if addr := os.Getenv("ZARA_ADDR"); addr != "" {
			opts.addr = addr
		}
	}
	if opts.model == agent.DefaultModel {
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			opts.model = model
		}
	}
	if os.Getenv("METRICS_ENABLED") == "false" {
		opts.metricsEnabled = false
	}
	if opts.metricsAddr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metricsAddr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if opts.metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     opts.metricsAddr,
			Provider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Confirm the metrics listener is up before serving chat traffic
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	googleConfig := google.Config{
		CredentialsFile: opts.credentialsFile,
		TokenFile:       opts.tokenFile,
	}
	if !googleConfig.HasToken() {
		return fmt.Errorf("no cached Google token at %s, run \"zara auth\" first", opts.tokenFile)
	}

	calendarClient, err := calendar.NewClient(shutdownCtx, googleConfig, logger, provider.Metrics())
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}

	completer, err := agent.NewCompleter()
	if err != nil {
		return err
	}

	agentConfig := agent.Config{Model: opts.model, Temperature: opts.temperature}
	assistant := agent.New(completer, calendarClient, agentConfig, logger, provider.Metrics())

	chatServer := server.New(assistant, server.Config{
		Addr:    opts.addr,
		Logger:  logger,
		Metrics: provider.Metrics(),
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- chatServer.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-shutdownCtx.Done():
	}

	logger.Info("shutdown signal received")
	drainCtx, drainCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer drainCancel()

	if err := chatServer.Shutdown(drainCtx); err != nil {
		logger.Error("chat server shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(drainCtx); err != nil {
			logger.Error("metrics server shutdown failed", logging.Err(err))
		}
	}
	return nil
}

// setupLogging configures the process-wide slog default and returns it.
func setupLogging(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
