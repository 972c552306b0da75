package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brojonat/walletpulse/client"
	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/brojonat/walletpulse/service/report"
	"github.com/brojonat/walletpulse/service/temporal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource serves the same transactions for every wallet.
type fixedSource struct {
	txns []activity.RawTransaction
}

func (s *fixedSource) Name() string { return "fixed" }

func (s *fixedSource) RecentTransactions(ctx context.Context, wallet string, since time.Time, limit int) ([]activity.RawTransaction, error) {
	return s.txns, nil
}

func strPtr(s string) *string { return &s }

func integrationTransactions(now time.Time) []activity.RawTransaction {
	recent := activity.UnixSeconds(now.Add(-time.Hour).Unix())
	old := activity.UnixSeconds(now.Add(-72 * time.Hour).Unix())
	amount := activity.NumberAmount(25)
	return []activity.RawTransaction{
		{
			Signature: "recent-sig",
			Timestamp: &recent,
			TokenTransfers: []activity.RawTransfer{
				{
					TokenName:       strPtr("USDC"),
					Mint:            strPtr("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
					FromUserAccount: strPtr("Sender1111111111111111111111111111111111111"),
					ToUserAccount:   strPtr(testWallet),
					TokenAmount:     &amount,
				},
			},
		},
		{
			Signature: "old-sig",
			Timestamp: &old,
			TokenTransfers: []activity.RawTransfer{
				{
					TokenName:       strPtr("USDC"),
					FromUserAccount: strPtr(testWallet),
					ToUserAccount:   strPtr("Dest11111111111111111111111111111111111111"),
					TokenAmount:     &amount,
				},
			},
		},
	}
}

// TestServerIntegration drives the routed server through the Go client.
func TestServerIntegration(t *testing.T) {
	now := time.Now()
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	summarizer := activity.NewSummarizer()
	summarizer.Now = func() time.Time { return now }
	svc := report.NewService(&fixedSource{txns: integrationTransactions(now)}, summarizer, m, testLogger())

	scheduler := temporal.NewMockScheduler()
	srv := New(":0", testConfig(), svc, scheduler, nil, m, testLogger())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := client.NewClient(ts.URL, nil, nil)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		require.NoError(t, c.Health(ctx))
	})

	t.Run("summary over default window", func(t *testing.T) {
		summary, err := c.Summary(ctx, testWallet, nil)
		require.NoError(t, err)

		assert.Equal(t, testWallet, summary.Wallet)
		assert.Equal(t, 24.0, summary.WindowHours)
		assert.Equal(t, 1, summary.Considered)
		require.Len(t, summary.Events, 1)

		transfer, ok := summary.Events[0].(activity.TransferEvent)
		require.True(t, ok)
		assert.Equal(t, activity.DirectionReceived, transfer.Direction)
		assert.Equal(t, "recent-sig", transfer.Signature)
		assert.Contains(t, summary.Text, "Received 25 USDC")
	})

	t.Run("summary over wider window", func(t *testing.T) {
		hours := 96.0
		summary, err := c.Summary(ctx, testWallet, &hours)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
	})

	t.Run("text summary", func(t *testing.T) {
		hours := 0.5
		text, err := c.Text(ctx, testWallet, &hours)
		require.NoError(t, err)
		assert.Equal(t, activity.NoActivityMessage(testWallet, 0.5), text)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := c.Summary(ctx, "0OIl", nil)
		var statusErr *client.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	})

	t.Run("schedule lifecycle", func(t *testing.T) {
		window := 12.0
		schedule, err := c.UpsertSchedule(ctx, testWallet, time.Hour, &window)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, schedule.Interval)
		assert.True(t, scheduler.ScheduleExists(testWallet))

		require.NoError(t, c.DeleteSchedule(ctx, testWallet))
		assert.False(t, scheduler.ScheduleExists(testWallet))

		err = c.DeleteSchedule(ctx, testWallet)
		var statusErr *client.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("tool", func(t *testing.T) {
		desc, err := c.Tool(ctx)
		require.NoError(t, err)
		assert.Equal(t, "wallet-monitor", desc.ID)

		text, err := c.InvokeTool(ctx, testWallet, nil)
		require.NoError(t, err)
		assert.Contains(t, text, "Received 25 USDC")
	})

	t.Run("metrics recorded", func(t *testing.T) {
		assert.Greater(t, testutil.CollectAndCount(registry, "http_requests_total"), 0)
		assert.Greater(t, testutil.CollectAndCount(registry, "summaries_total"), 0)
	})
}
