package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/metrics"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceName labels metrics and logs for this source.
const SourceName = "postgres"

// Schema is the indexer table the store reads. The store never writes to it.
const Schema = `
CREATE TABLE IF NOT EXISTS wallet_transactions (
    signature       TEXT NOT NULL,
    wallet_address  TEXT NOT NULL,
    block_time      TIMESTAMPTZ,
    token_transfers JSONB NOT NULL DEFAULT '[]'::jsonb,
    instructions    JSONB NOT NULL DEFAULT '[]'::jsonb,
    PRIMARY KEY (wallet_address, signature)
);
CREATE INDEX IF NOT EXISTS wallet_transactions_wallet_time_idx
    ON wallet_transactions (wallet_address, block_time DESC);
`

const recentTransactionsQuery = `
SELECT signature, block_time, token_transfers, instructions
FROM wallet_transactions
WHERE wallet_address = $1
  AND (block_time IS NULL OR block_time >= $2)
ORDER BY block_time DESC NULLS LAST, signature
LIMIT $3`

// Store reads indexed wallet transactions from Postgres.
type Store struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection pool.
// If metrics is nil, no metrics are recorded.
func NewStore(pool *pgxpool.Pool, m *metrics.Metrics) *Store {
	return &Store{
		pool:    pool,
		metrics: m,
	}
}

// Name returns the source name.
func (s *Store) Name() string { return SourceName }

// RecentTransactions returns up to limit of the wallet's transactions with a
// block time at or after since, newest first. Rows without a block time are
// included so the window filter can account for them.
func (s *Store) RecentTransactions(ctx context.Context, wallet string, since time.Time, limit int) ([]activity.RawTransaction, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, recentTransactionsQuery, wallet, since, limit)
	if err != nil {
		s.metrics.RecordDBQuery("select", "wallet_transactions", time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []activity.RawTransaction
	for rows.Next() {
		var (
			signature    string
			blockTime    pgtype.Timestamptz
			transfers    []byte
			instructions []byte
		)
		if err := rows.Scan(&signature, &blockTime, &transfers, &instructions); err != nil {
			s.metrics.RecordDBQuery("select", "wallet_transactions", time.Since(start).Seconds(), err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, rowToRaw(signature, blockTime, transfers, instructions))
	}
	err = rows.Err()
	s.metrics.RecordDBQuery("select", "wallet_transactions", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	s.metrics.RecordTransactionsFetched(SourceName, len(txns))
	return txns, nil
}

// rowToRaw converts a row to a RawTransaction. JSON columns that do not decode
// are dropped rather than failing the whole query.
func rowToRaw(signature string, blockTime pgtype.Timestamptz, transfers, instructions []byte) activity.RawTransaction {
	raw := activity.RawTransaction{Signature: signature}
	if blockTime.Valid {
		ts := activity.UnixSeconds(blockTime.Time.Unix())
		raw.Timestamp = &ts
	}
	if len(transfers) > 0 {
		var t []activity.RawTransfer
		if err := json.Unmarshal(transfers, &t); err == nil {
			raw.TokenTransfers = t
		}
	}
	if len(instructions) > 0 {
		var ins []activity.RawInstruction
		if err := json.Unmarshal(instructions, &ins); err == nil {
			raw.Instructions = ins
		}
	}
	return raw
}
