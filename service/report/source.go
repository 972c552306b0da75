package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/db"
	"github.com/brojonat/walletpulse/service/helius"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/brojonat/walletpulse/service/solana"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewSource builds the transaction source selected by cfg.Source. The
// returned close function releases any resources the source holds.
func NewSource(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case config.SourceHelius:
		return helius.NewClient(cfg.HeliusBaseURL, cfg.HeliusAPIKey, nil, m, logger), noop, nil

	case config.SourceRPC:
		endpoint, err := solana.SelectRandomEndpoint(solana.SplitEndpoints(cfg.SolanaRPCURL))
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("using RPC endpoint", "endpoint", endpoint)
		return solana.NewClient(solana.NewRPCClient(endpoint), m, logger), noop, nil

	case config.SourcePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to ping database: %w", err)
		}
		return db.NewStore(pool, m), pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// NewSummarizer builds a summarizer rendering in the configured zone with the
// configured explorer links.
func NewSummarizer(cfg *config.Config) *activity.Summarizer {
	s := activity.NewSummarizer()
	s.Renderer.Location = cfg.Location()
	if cfg.ExplorerTxURL != "" {
		s.Renderer.ExplorerTxURL = cfg.ExplorerTxURL
	}
	return s
}

// NewServiceFromConfig wires a Service to the configured source. Callers must
// invoke the returned close function when done.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Service, func(), error) {
	source, closeFn, err := NewSource(ctx, cfg, m, logger)
	if err != nil {
		return nil, closeFn, err
	}
	svc := NewService(source, NewSummarizer(cfg), m, logger)
	svc.FetchLimit = cfg.FetchLimit
	svc.DefaultHours = cfg.DefaultWindowHours
	return svc, closeFn, nil
}
