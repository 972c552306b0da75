package solana

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SourceName labels metrics and logs for this source.
const SourceName = "rpc"

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Client fetches recent wallet transactions over Solana JSON-RPC and converts
// them to raw transactions.
type Client struct {
	rpc     RPCClient
	logger  *slog.Logger
	metrics *metrics.Metrics

	// RequestDelay is slept before each GetTransaction call to stay under
	// public RPC rate limits. Premium endpoints can use 100-150ms.
	RequestDelay time.Duration
	// MaxAttempts bounds GetTransaction retries.
	MaxAttempts int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new Solana client. If metrics is nil, no metrics are recorded.
func NewClient(rpcClient RPCClient, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		rpc:          rpcClient,
		logger:       logger,
		metrics:      m,
		RequestDelay: 600 * time.Millisecond,
		MaxAttempts:  3,
		sleep:        sleepContext,
	}
}

// Name returns the source name.
func (c *Client) Name() string { return SourceName }

// RecentTransactions returns up to limit of the wallet's most recent
// transactions, newest first. Signatures older than since are not fetched in
// full since they cannot fall inside the window.
func (c *Client) RecentTransactions(ctx context.Context, wallet string, since time.Time, limit int) ([]activity.RawTransaction, error) {
	address, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", wallet, err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"wallet", wallet,
		"limit", limit,
		"since", since,
	)

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, address, opts)
	c.metrics.RecordFetchCall(SourceName, "GetSignaturesForAddress", statusOf(err), time.Since(start).Seconds())
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get signatures",
			"wallet", wallet,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	transactions := make([]activity.RawTransaction, 0, len(signatures))
	for _, sig := range signatures {
		if sig.BlockTime != nil && sig.BlockTime.Time().Before(since) {
			c.logger.DebugContext(ctx, "signature outside window, skipping",
				"signature", sig.Signature.String(),
			)
			transactions = append(transactions, signatureToRaw(sig))
			continue
		}

		if sig.Err != nil {
			transactions = append(transactions, signatureToRaw(sig))
			continue
		}

		if err := c.sleep(ctx, c.RequestDelay); err != nil {
			return nil, err
		}

		result, err := c.getTransaction(ctx, sig.Signature)
		if err != nil {
			// pruned or unavailable; keep the metadata so the window still sees it
			c.logger.WarnContext(ctx, "failed to get transaction details after retries, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
			transactions = append(transactions, signatureToRaw(sig))
			continue
		}

		raw, err := parseTransactionFromResult(sig, result)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to parse transaction, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
			c.metrics.RecordTransactionParsed("error")
			transactions = append(transactions, raw)
			continue
		}

		c.metrics.RecordTransactionParsed("success")
		transactions = append(transactions, raw)
	}

	c.metrics.RecordTransactionsFetched(SourceName, len(transactions))
	c.logger.InfoContext(ctx, "fetched and parsed transactions",
		"wallet", wallet,
		"count", len(transactions),
	)

	return transactions, nil
}

// getTransaction fetches one transaction with retries. Rate limits back off
// longer than other errors; a versioned-decode failure is retried once as a
// legacy transaction.
func (c *Client) getTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	var (
		result *rpc.GetTransactionResult
		err    error
	)

	attempts := max(c.MaxAttempts, 1)
	for attempt := range attempts {
		opts := &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &[]uint64{0}[0],
		}
		start := time.Now()
		result, err = c.rpc.GetTransaction(ctx, signature, opts)
		c.metrics.RecordFetchCall(SourceName, "GetTransaction", statusOf(err), time.Since(start).Seconds())
		if err == nil {
			return result, nil
		}

		if strings.Contains(err.Error(), "429") {
			backoff := time.Duration(2<<uint(attempt)) * time.Second
			c.logger.WarnContext(ctx, "rate limited, sleeping before retry",
				"signature", signature.String(),
				"attempt", attempt+1,
				"backoff_seconds", backoff.Seconds(),
			)
			c.metrics.RecordRateLimitHit(SourceName)
			c.metrics.RecordRetry(SourceName, "rate_limit")
			if serr := c.sleep(ctx, backoff); serr != nil {
				return nil, serr
			}
			continue
		}

		if strings.Contains(err.Error(), "expects '\"' or 'n', but found '{'") {
			c.logger.WarnContext(ctx, "could not parse as versioned tx, retrying as legacy",
				"signature", signature.String(),
			)
			c.metrics.RecordRetry(SourceName, "parse_error")
			result, err = c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
				Encoding: solana.EncodingBase64,
			})
			if err == nil {
				return result, nil
			}
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		c.logger.WarnContext(ctx, "failed to get transaction on attempt",
			"signature", signature.String(),
			"attempt", attempt+1,
			"error", err,
			"backoff_seconds", backoff.Seconds(),
		)
		c.metrics.RecordRetry(SourceName, "timeout_or_error")
		if serr := c.sleep(ctx, backoff); serr != nil {
			return nil, serr
		}
	}

	return nil, err
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
