package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/brojonat/walletpulse/service/report"
	"github.com/brojonat/walletpulse/service/server"
	"github.com/brojonat/walletpulse/service/temporal"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"source", cfg.Source,
		"log_level", cfg.LogLevel,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

	// Initialize summary service over the configured source
	summaries, closeSource, err := report.NewServiceFromConfig(ctx, cfg, metricsCollector, logger)
	if err != nil {
		logger.Error("failed to create summary service", "error", err)
		os.Exit(1)
	}
	defer closeSource()
	logger.Info("summary service ready", "source", summaries.SourceName())

	// Initialize Temporal client for schedule management
	var scheduler temporal.Scheduler
	temporalClient, err := temporal.NewClient(
		cfg.TemporalHost,
		cfg.TemporalNamespace,
		cfg.TemporalTaskQueue,
		logger,
	)
	if err != nil {
		logger.Warn("temporal unavailable, schedule endpoints disabled", "error", err)
	} else {
		defer temporalClient.Close()
		scheduler = temporalClient
		logger.Info("connected to temporal",
			"host", cfg.TemporalHost,
			"namespace", cfg.TemporalNamespace,
		)
	}

	// Initialize SSE stream (if NATS is configured)
	var stream *server.SummaryStream
	if cfg.NATSURL != "" {
		stream, err = server.NewSummaryStream(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to create summary stream", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, cfg, summaries, scheduler, stream, metricsCollector, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
