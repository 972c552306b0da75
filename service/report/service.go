// Package report fetches a wallet's recent transactions from a configured
// source and summarizes them.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/metrics"
)

// DefaultFetchLimit is the number of transactions requested per summary.
const DefaultFetchLimit = 100

// ErrInvalidWallet is returned for an empty wallet address.
var ErrInvalidWallet = errors.New("wallet address is required")

// Source fetches a wallet's most recent transactions, newest first. Sources
// may return transactions older than since; the window filter drops them.
type Source interface {
	Name() string
	RecentTransactions(ctx context.Context, wallet string, since time.Time, limit int) ([]activity.RawTransaction, error)
}

// Request asks for a summary of one wallet. A nil Hours selects the service
// default window.
type Request struct {
	Wallet string
	Hours  *float64
}

// Service summarizes wallet activity from a Source.
type Service struct {
	source     Source
	summarizer *activity.Summarizer
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// FetchLimit is passed to the source on every fetch.
	FetchLimit int
	// DefaultHours is used when a request carries no window.
	DefaultHours float64
}

// NewService creates a Service. A nil summarizer uses the activity defaults.
func NewService(source Source, summarizer *activity.Summarizer, m *metrics.Metrics, logger *slog.Logger) *Service {
	if summarizer == nil {
		summarizer = activity.NewSummarizer()
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		source:       source,
		summarizer:   summarizer,
		logger:       logger,
		metrics:      m,
		FetchLimit:   DefaultFetchLimit,
		DefaultHours: activity.DefaultWindowHours,
	}
}

// SourceName returns the name of the configured source.
func (s *Service) SourceName() string { return s.source.Name() }

// Summarize fetches the wallet's recent transactions and summarizes the ones
// inside the requested window. Fetch errors are returned as is; the summary
// itself never fails.
func (s *Service) Summarize(ctx context.Context, req Request) (*activity.Summary, error) {
	wallet := strings.TrimSpace(req.Wallet)
	if wallet == "" {
		return nil, ErrInvalidWallet
	}

	hours := s.DefaultHours
	if req.Hours != nil {
		hours = *req.Hours
	}

	now := time.Now()
	if s.summarizer.Now != nil {
		now = s.summarizer.Now()
	}
	since := now.Add(-time.Duration(hours * float64(time.Hour)))

	start := time.Now()
	txns, err := s.source.RecentTransactions(ctx, wallet, since, s.FetchLimit)
	if err != nil {
		s.metrics.RecordSummary(s.source.Name(), "error", time.Since(start).Seconds())
		s.logger.ErrorContext(ctx, "failed to fetch transactions",
			"wallet", wallet,
			"source", s.source.Name(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to fetch transactions from %s: %w", s.source.Name(), err)
	}

	summary := s.summarizer.Summarize(txns, wallet, hours)
	s.recordEvents(summary.Events)
	s.metrics.RecordSummary(s.source.Name(), "success", time.Since(start).Seconds())

	s.logger.InfoContext(ctx, "summarized wallet activity",
		"wallet", wallet,
		"source", s.source.Name(),
		"window_hours", hours,
		"fetched", len(txns),
		"considered", summary.Considered,
		"events", summary.Total,
	)
	return summary, nil
}

func (s *Service) recordEvents(events []activity.Event) {
	counts := make(map[activity.EventKind]int)
	for _, ev := range events {
		counts[ev.Kind()]++
	}
	for kind, n := range counts {
		s.metrics.RecordEventsClassified(string(kind), n)
	}
}
