package db

import (
	"context"
	"testing"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertTransaction = `
INSERT INTO wallet_transactions (signature, wallet_address, block_time, token_transfers, instructions)
VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)`

func TestRecentTransactions(t *testing.T) {
	SkipIfNoTestDB(t)

	store := NewTestStore(t)
	defer store.Close()
	defer store.Cleanup(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	transfers := `[{"fromUserAccount": "wallet1", "toUserAccount": "other", "tokenAmount": 10, "mint": "mintA", "tokenName": "AAA"}]`
	instructions := `[{"programId": "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", "programName": "Jupiter (jup.ag)"}]`

	store.MustExec(t, insertTransaction, "sig-new", "wallet1", now.Add(-time.Hour), transfers, instructions)
	store.MustExec(t, insertTransaction, "sig-old", "wallet1", now.Add(-48*time.Hour), `[]`, `[]`)
	store.MustExec(t, insertTransaction, "sig-other", "wallet2", now.Add(-time.Hour), `[]`, `[]`)
	store.MustExec(t, insertTransaction, "sig-notime", "wallet1", nil, `[]`, `[]`)

	t.Run("filters by wallet and time", func(t *testing.T) {
		txns, err := store.RecentTransactions(ctx, "wallet1", now.Add(-24*time.Hour), 100)
		require.NoError(t, err)
		require.Len(t, txns, 2)

		assert.Equal(t, "sig-new", txns[0].Signature)
		require.NotNil(t, txns[0].Timestamp)
		assert.Equal(t, activity.UnixSeconds(now.Add(-time.Hour).Unix()), *txns[0].Timestamp)
		require.Len(t, txns[0].TokenTransfers, 1)
		assert.Equal(t, "10", txns[0].TokenTransfers[0].TokenAmount.String())
		require.Len(t, txns[0].Instructions, 1)

		assert.Equal(t, "sig-notime", txns[1].Signature)
		assert.Nil(t, txns[1].Timestamp)
	})

	t.Run("respects limit", func(t *testing.T) {
		txns, err := store.RecentTransactions(ctx, "wallet1", now.Add(-72*time.Hour), 1)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "sig-new", txns[0].Signature)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		txns, err := store.RecentTransactions(ctx, "nobody", now.Add(-24*time.Hour), 100)
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestRowToRaw(t *testing.T) {
	blockTime := pgtype.Timestamptz{Time: time.Unix(1_700_000_000, 0), Valid: true}

	t.Run("decodes json columns", func(t *testing.T) {
		raw := rowToRaw("sig", blockTime,
			[]byte(`[{"mint": "m", "tokenAmount": "5"}]`),
			[]byte(`[{"programId": "p"}]`))

		assert.Equal(t, "sig", raw.Signature)
		require.NotNil(t, raw.Timestamp)
		assert.Equal(t, activity.UnixSeconds(1_700_000_000), *raw.Timestamp)
		require.Len(t, raw.TokenTransfers, 1)
		assert.Equal(t, "5", raw.TokenTransfers[0].TokenAmount.String())
		require.Len(t, raw.Instructions, 1)
		assert.Equal(t, "p", raw.Instructions[0].ProgramID)
	})

	t.Run("malformed columns are dropped", func(t *testing.T) {
		raw := rowToRaw("sig", pgtype.Timestamptz{}, []byte(`{"not": "a list"}`), []byte(`oops`))

		assert.Nil(t, raw.Timestamp)
		assert.Empty(t, raw.TokenTransfers)
		assert.Empty(t, raw.Instructions)
	})
}
