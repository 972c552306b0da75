// Package helius fetches wallet transactions from the Helius
// enhanced-transactions API.
package helius

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/brojonat/walletpulse/service/solana"
)

// SourceName labels metrics and logs for this source.
const SourceName = "helius"

// DefaultBaseURL is the public Helius API.
const DefaultBaseURL = "https://api.helius.xyz"

var (
	// ErrUnauthorized is returned when the API key is missing or rejected.
	ErrUnauthorized = errors.New("helius: unauthorized")
	// ErrRateLimited is returned when retries are exhausted on 429 responses.
	ErrRateLimited = errors.New("helius: rate limited")
)

// StatusError is returned for non-success responses other than 401/403/429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("helius: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client fetches recent transactions for a wallet.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// MaxAttempts bounds retries of 429 and 5xx responses.
	MaxAttempts int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
}

// NewClient creates a Helius client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  httpClient,
		logger:      logger,
		metrics:     m,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}
}

// Name returns the source name.
func (c *Client) Name() string { return SourceName }

// RecentTransactions returns up to limit of the wallet's most recent
// transactions. The API pages newest first and has no time filter, so since
// is only used for logging; callers filter by window.
func (c *Client) RecentTransactions(ctx context.Context, wallet string, since time.Time, limit int) ([]activity.RawTransaction, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrUnauthorized)
	}

	u := fmt.Sprintf("%s/v0/addresses/%s/transactions", c.baseURL, url.PathEscape(wallet))
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u += "?" + q.Encode()

	c.logger.DebugContext(ctx, "fetching enhanced transactions",
		"wallet", wallet,
		"limit", limit,
		"since", since,
	)

	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to fetch transactions",
			"wallet", wallet,
			"error", err,
		)
		return nil, err
	}

	txns, err := c.decode(ctx, body)
	if err != nil {
		return nil, err
	}

	c.metrics.RecordTransactionsFetched(SourceName, len(txns))
	c.logger.InfoContext(ctx, "fetched transactions",
		"wallet", wallet,
		"count", len(txns),
	)
	return txns, nil
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	attempts := max(c.MaxAttempts, 1)
	backoff := c.Backoff

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, retry, err := c.get(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}

		reason := "server_error"
		if errors.Is(err, ErrRateLimited) {
			reason = "rate_limit"
			c.metrics.RecordRateLimitHit(SourceName)
		}
		c.metrics.RecordRetry(SourceName, reason)
		c.logger.WarnContext(ctx, "request failed, retrying",
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, lastErr
}

// get performs one request and reports whether a failure is retryable.
func (c *Client) get(ctx context.Context, u string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFetchCall(SourceName, "transactions", "error", time.Since(start).Seconds())
		// the URL carries the API key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	status := "success"
	if resp.StatusCode != http.StatusOK || err != nil {
		status = "error"
	}
	c.metrics.RecordFetchCall(SourceName, "transactions", status, time.Since(start).Seconds())
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	default:
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
}

// decode parses the response array element by element so one malformed
// transaction does not discard the rest.
func (c *Client) decode(ctx context.Context, body []byte) ([]activity.RawTransaction, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	txns := make([]activity.RawTransaction, 0, len(items))
	for i, item := range items {
		var tx activity.RawTransaction
		if err := json.Unmarshal(item, &tx); err != nil {
			c.logger.WarnContext(ctx, "skipping malformed transaction",
				"index", i,
				"error", err,
			)
			c.metrics.RecordTransactionParsed("error")
			continue
		}
		enrich(&tx)
		c.metrics.RecordTransactionParsed("success")
		txns = append(txns, tx)
	}
	return txns, nil
}

// enrich fills in program and token names the payload leaves out.
func enrich(tx *activity.RawTransaction) {
	for i := range tx.Instructions {
		ins := &tx.Instructions[i]
		if ins.ProgramName == nil || *ins.ProgramName == "" {
			ins.ProgramName = solana.ProgramName(ins.ProgramID)
		}
	}
	for i := range tx.TokenTransfers {
		t := &tx.TokenTransfers[i]
		if (t.TokenName == nil || *t.TokenName == "") && t.Mint != nil {
			t.TokenName = solana.TokenName(*t.Mint)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
