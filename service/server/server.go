package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/brojonat/walletpulse/service/report"
	"github.com/brojonat/walletpulse/service/temporal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SummaryService produces wallet summaries.
type SummaryService interface {
	Summarize(ctx context.Context, req report.Request) (*activity.Summary, error)
}

// Server represents the HTTP server for the summary service.
type Server struct {
	addr      string
	cfg       *config.Config
	summaries SummaryService
	scheduler temporal.Scheduler
	stream    *SummaryStream
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The scheduler is optional - if nil, schedule endpoints respond 503.
// The stream is optional - if nil, SSE endpoints won't be available.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, summaries SummaryService, scheduler temporal.Scheduler, stream *SummaryStream, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		cfg:       cfg,
		summaries: summaries,
		scheduler: scheduler,
		stream:    stream,
		metrics:   m,
		logger:    logger,
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	instrument := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	// Summary routes
	mux.Handle("GET /api/v1/wallets/{address}/summary", instrument("wallet_summary", handleWalletSummary(s.summaries, s.logger)))

	// Schedule routes
	mux.Handle("POST /api/v1/schedules", instrument("schedule_upsert", handleUpsertSchedule(s.scheduler, s.cfg, s.logger)))
	mux.Handle("DELETE /api/v1/schedules/{address}", instrument("schedule_delete", handleDeleteSchedule(s.scheduler, s.logger)))

	// Agent tool routes
	mux.Handle("GET /api/v1/tools/wallet-monitor", instrument("tool_describe", handleDescribeTool(s.cfg)))
	mux.Handle("POST /api/v1/tools/wallet-monitor", instrument("tool_invoke", handleInvokeTool(s.summaries, s.logger)))

	// SSE streaming endpoints (if stream is configured)
	if s.stream != nil {
		mux.Handle("GET /api/v1/stream/summaries/{address}", handleStreamSummaries(s.stream, s.logger))
		mux.Handle("GET /api/v1/stream/summaries", handleStreamSummaries(s.stream, s.logger))
		s.logger.Info("SSE streaming endpoints enabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// summaries can spend a while on upstream fetches; SSE writes are unbounded
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Close the stream first (disconnects all SSE clients)
	if s.stream != nil {
		s.stream.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
