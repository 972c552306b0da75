package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/helius"
	"github.com/brojonat/walletpulse/service/metrics"
	natspkg "github.com/brojonat/walletpulse/service/nats"
	"github.com/brojonat/walletpulse/service/report"
	temporalsdk "go.temporal.io/sdk/temporal"
)

// SummarizeWalletInput contains the input parameters for summarizing a wallet.
type SummarizeWalletInput struct {
	Wallet string `json:"wallet"`
	// WindowHours is nil to use the service default window.
	WindowHours *float64 `json:"window_hours,omitempty"`
}

// SummarizeWalletResult contains the result of one scheduled summary.
type SummarizeWalletResult struct {
	Wallet      string    `json:"wallet"`
	WindowHours float64   `json:"window_hours"`
	Total       int       `json:"total"`
	Shown       int       `json:"shown"`
	Published   bool      `json:"published"`
	EventID     string    `json:"event_id,omitempty"`
	RunTime     time.Time `json:"run_time"`
	Error       *string   `json:"error,omitempty"`
}

// BuildSummaryInput contains parameters for the BuildSummary activity.
type BuildSummaryInput struct {
	Wallet      string   `json:"wallet"`
	WindowHours *float64 `json:"window_hours,omitempty"`
}

// BuildSummaryResult contains the summary built by the BuildSummary activity.
type BuildSummaryResult struct {
	Source  string            `json:"source"`
	Summary *activity.Summary `json:"summary"`
}

// PublishSummaryInput contains parameters for the PublishSummary activity.
type PublishSummaryInput struct {
	Source  string            `json:"source"`
	Summary *activity.Summary `json:"summary"`
}

// PublishSummaryResult contains the result of the PublishSummary activity.
type PublishSummaryResult struct {
	Published bool   `json:"published"`
	EventID   string `json:"event_id,omitempty"`
}

// SummaryService defines the summary operations needed by activities.
// This allows for easy mocking in tests.
type SummaryService interface {
	Summarize(ctx context.Context, req report.Request) (*activity.Summary, error)
	SourceName() string
}

// PublisherInterface defines the NATS publishing operations needed by activities.
// This allows for easy mocking in tests.
type PublisherInterface interface {
	PublishSummary(ctx context.Context, event *natspkg.SummaryEvent) error
}

// Activities holds the dependencies needed by Temporal activities.
type Activities struct {
	service   SummaryService
	publisher PublisherInterface
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// A nil publisher disables publishing. If metrics is nil, no metrics will be recorded.
func NewActivities(service SummaryService, publisher PublisherInterface, m *metrics.Metrics, logger *slog.Logger) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		service:   service,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// BuildSummary fetches the wallet's recent transactions and summarizes them.
// Errors that cannot succeed on retry are returned as non-retryable.
func (a *Activities) BuildSummary(ctx context.Context, input BuildSummaryInput) (*BuildSummaryResult, error) {
	start := time.Now()
	status := "success"
	defer func() {
		a.metrics.RecordActivityDuration("BuildSummary", status, time.Since(start).Seconds())
	}()

	a.logger.DebugContext(ctx, "building summary", "wallet", input.Wallet)

	summary, err := a.service.Summarize(ctx, report.Request{
		Wallet: input.Wallet,
		Hours:  input.WindowHours,
	})
	if err != nil {
		status = "error"
		a.logger.ErrorContext(ctx, "failed to build summary",
			"wallet", input.Wallet,
			"error", err,
		)
		if errors.Is(err, report.ErrInvalidWallet) || errors.Is(err, helius.ErrUnauthorized) {
			return nil, temporalsdk.NewNonRetryableApplicationError(err.Error(), "InvalidRequest", err)
		}
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}

	a.logger.InfoContext(ctx, "built summary",
		"wallet", input.Wallet,
		"events", summary.Total,
	)

	return &BuildSummaryResult{
		Source:  a.service.SourceName(),
		Summary: summary,
	}, nil
}

// PublishSummary publishes a summary to NATS. It is a no-op when no publisher
// is configured.
func (a *Activities) PublishSummary(ctx context.Context, input PublishSummaryInput) (*PublishSummaryResult, error) {
	start := time.Now()
	status := "success"
	defer func() {
		a.metrics.RecordActivityDuration("PublishSummary", status, time.Since(start).Seconds())
	}()

	if a.publisher == nil {
		status = "skipped"
		a.logger.DebugContext(ctx, "no publisher configured, skipping publish")
		return &PublishSummaryResult{Published: false}, nil
	}
	if input.Summary == nil {
		status = "error"
		return nil, temporalsdk.NewNonRetryableApplicationError("summary is required", "InvalidRequest", nil)
	}

	event := natspkg.FromSummary(input.Summary, input.Source)
	if err := a.publisher.PublishSummary(ctx, event); err != nil {
		status = "error"
		a.logger.ErrorContext(ctx, "failed to publish summary",
			"wallet", input.Summary.Wallet,
			"error", err,
		)
		return nil, fmt.Errorf("failed to publish summary: %w", err)
	}

	a.logger.InfoContext(ctx, "published summary",
		"wallet", input.Summary.Wallet,
		"event_id", event.ID,
	)

	return &PublishSummaryResult{Published: true, EventID: event.ID}, nil
}
