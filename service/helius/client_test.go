package helius

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "WalletAAA"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(server.URL, "test-key", server.Client(), nil, logger)
	c.Backoff = time.Millisecond
	return c
}

const samplePayload = `[
  {
    "signature": "sig-swap",
    "timestamp": 1700000000,
    "type": "SWAP",
    "tokenTransfers": [
      {"fromUserAccount": "WalletAAA", "toUserAccount": "Pool", "tokenAmount": 10, "mint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
      {"fromUserAccount": "Pool", "toUserAccount": "WalletAAA", "tokenAmount": 0.5, "mint": "So11111111111111111111111111111111111111112", "tokenName": "SOL"}
    ],
    "instructions": [
      {"programId": "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", "accounts": [], "data": ""}
    ]
  },
  {
    "signature": "sig-plain",
    "timestamp": "1699999000",
    "tokenTransfers": []
  }
]`

func TestRecentTransactions(t *testing.T) {
	var gotPath, gotKey, gotLimit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api-key")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	})

	txns, err := client.RecentTransactions(context.Background(), testWallet, time.Now().Add(-24*time.Hour), 100)
	require.NoError(t, err)

	assert.Equal(t, "/v0/addresses/WalletAAA/transactions", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "100", gotLimit)

	require.Len(t, txns, 2)
	swap := txns[0]
	assert.Equal(t, "sig-swap", swap.Signature)
	require.NotNil(t, swap.Timestamp)
	assert.Equal(t, activity.UnixSeconds(1700000000), *swap.Timestamp)

	require.Len(t, swap.TokenTransfers, 2)
	// name filled from known mints
	require.NotNil(t, swap.TokenTransfers[0].TokenName)
	assert.Equal(t, "USD Coin", *swap.TokenTransfers[0].TokenName)
	// name from payload kept
	assert.Equal(t, "SOL", *swap.TokenTransfers[1].TokenName)
	assert.Equal(t, "0.5", swap.TokenTransfers[1].TokenAmount.String())

	require.Len(t, swap.Instructions, 1)
	require.NotNil(t, swap.Instructions[0].ProgramName)
	assert.True(t, activity.DefaultVenues.DetectSwap(swap.Instructions, len(swap.TokenTransfers)))

	require.NotNil(t, txns[1].Timestamp)
	assert.Equal(t, activity.UnixSeconds(1699999000), *txns[1].Timestamp)
}

func TestRecentTransactions_SkipsMalformedElements(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"signature": "ok"}, {"signature": "bad", "tokenTransfers": "nope"}]`))
	})

	txns, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "ok", txns[0].Signature)
}

func TestRecentTransactions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateLimited)
			},
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadRequest, se.StatusCode)
				assert.Contains(t, se.Body, "invalid address")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": "invalid address"}`))
			})

			txns, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
			require.Error(t, err)
			assert.Nil(t, txns)
			tt.check(t, err)
		})
	}
}

func TestRecentTransactions_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	txns, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRecentTransactions_DoesNotRetryUnauthorized(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRecentTransactions_MissingAPIKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "", nil, nil, nil)

	_, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRecentTransactions_ErrorHidesAPIKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "secret-key", nil, nil, nil)
	client.MaxAttempts = 1

	_, err := client.RecentTransactions(context.Background(), testWallet, time.Time{}, 10)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}
