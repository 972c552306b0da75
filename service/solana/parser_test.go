package solana

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	wsolMint = "So11111111111111111111111111111111111111112"
	testSig  = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"
)

// Helper function to create a TransactionResultEnvelope from a Transaction.
// Since TransactionResultEnvelope has unexported fields, we use JSON marshaling.
func makeTransactionEnvelope(tx *solana.Transaction) (*rpc.TransactionResultEnvelope, error) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	var temp struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	temp.Transaction = txJSON

	envelopeJSON, err := json.Marshal(temp)
	if err != nil {
		return nil, err
	}

	var result rpc.GetTransactionResult
	if err := json.Unmarshal(envelopeJSON, &result); err != nil {
		return nil, err
	}

	return result.Transaction, nil
}

func balance(index uint16, owner solana.PublicKey, mint string, amount string, decimals uint8) rpc.TokenBalance {
	return rpc.TokenBalance{
		AccountIndex: index,
		Owner:        &owner,
		Mint:         solana.MustPublicKeyFromBase58(mint),
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount:   amount,
			Decimals: decimals,
		},
	}
}

func testSignature(blockTime *solana.UnixTimeSeconds) *rpc.TransactionSignature {
	return &rpc.TransactionSignature{
		Signature: solana.MustSignatureFromBase58(testSig),
		Slot:      100,
		BlockTime: blockTime,
	}
}

// swapResult builds a Jupiter swap where wallet pays 1.5 USDC to pool and
// receives 0.01 wSOL back.
func swapResult(t *testing.T, wallet, pool solana.PublicKey) *rpc.GetTransactionResult {
	t.Helper()

	jupiter := solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
	computeBudget := solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{wallet, pool, computeBudget, jupiter},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Data: []byte{2}},
				{ProgramIDIndex: 3, Accounts: []uint16{0, 1}, Data: []byte{1}},
			},
		},
	}
	envelope, err := makeTransactionEnvelope(tx)
	require.NoError(t, err)

	return &rpc.GetTransactionResult{
		Transaction: envelope,
		Meta: &rpc.TransactionMeta{
			PreTokenBalances: []rpc.TokenBalance{
				balance(1, wallet, usdcMint, "2000000", 6),
				balance(2, pool, usdcMint, "10000000", 6),
				balance(4, pool, wsolMint, "1000000000", 9),
			},
			PostTokenBalances: []rpc.TokenBalance{
				balance(1, wallet, usdcMint, "500000", 6),
				balance(2, pool, usdcMint, "11500000", 6),
				balance(3, wallet, wsolMint, "10000000", 9),
				balance(4, pool, wsolMint, "990000000", 9),
			},
		},
	}
}

func TestParseTransaction_Swap(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	now := solana.UnixTimeSeconds(time.Now().Unix())

	raw, err := parseTransactionFromResult(testSignature(&now), swapResult(t, wallet, pool))
	require.NoError(t, err)

	assert.Equal(t, testSig, raw.Signature)
	require.NotNil(t, raw.Timestamp)
	assert.Equal(t, activity.UnixSeconds(now), *raw.Timestamp)

	require.Len(t, raw.Instructions, 2)
	require.NotNil(t, raw.Instructions[0].ProgramName)
	assert.Equal(t, "Compute Budget Program", *raw.Instructions[0].ProgramName)
	require.NotNil(t, raw.Instructions[1].ProgramName)
	assert.Equal(t, "Jupiter Aggregator v6 (jup.ag)", *raw.Instructions[1].ProgramName)

	require.Len(t, raw.TokenTransfers, 2)

	usdc := raw.TokenTransfers[0]
	assert.Equal(t, usdcMint, *usdc.Mint)
	assert.Equal(t, "USD Coin", *usdc.TokenName)
	assert.Equal(t, wallet.String(), *usdc.FromUserAccount)
	assert.Equal(t, pool.String(), *usdc.ToUserAccount)
	assert.Equal(t, "1.5", usdc.TokenAmount.String())

	wsol := raw.TokenTransfers[1]
	assert.Equal(t, wsolMint, *wsol.Mint)
	assert.Equal(t, pool.String(), *wsol.FromUserAccount)
	assert.Equal(t, wallet.String(), *wsol.ToUserAccount)
	assert.Equal(t, "0.01", wsol.TokenAmount.String())
}

func TestParseTransaction_SwapClassifies(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	now := solana.UnixTimeSeconds(time.Now().Unix())

	raw, err := parseTransactionFromResult(testSignature(&now), swapResult(t, wallet, pool))
	require.NoError(t, err)

	events := activity.NewClassifier(wallet.String(), nil).Classify(raw)
	require.Len(t, events, 3)

	sent, ok := events[0].(activity.TransferEvent)
	require.True(t, ok)
	assert.Equal(t, activity.DirectionSent, sent.Direction)

	received, ok := events[1].(activity.TransferEvent)
	require.True(t, ok)
	assert.Equal(t, activity.DirectionReceived, received.Direction)

	swap, ok := events[2].(activity.SwapEvent)
	require.True(t, ok)
	assert.Equal(t, "USD Coin", swap.FromToken)
	assert.Equal(t, "1.5", swap.FromAmount)
	assert.Equal(t, "Wrapped SOL", swap.ToToken)
	assert.Equal(t, "0.01", swap.ToAmount)
}

func TestParseTransaction_Failed(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())
	sig := testSignature(&now)
	sig.Err = map[string]interface{}{"InstructionError": []interface{}{0, "InsufficientFunds"}}

	raw, err := parseTransactionFromResult(sig, &rpc.GetTransactionResult{})
	require.NoError(t, err)
	assert.Equal(t, testSig, raw.Signature)
	assert.Empty(t, raw.TokenTransfers)
	assert.Empty(t, raw.Instructions)
}

func TestParseTransaction_BlockTimeFromResult(t *testing.T) {
	blockTime := solana.UnixTimeSeconds(1_700_000_000)

	raw, err := parseTransactionFromResult(testSignature(nil), &rpc.GetTransactionResult{BlockTime: &blockTime})
	require.NoError(t, err)
	require.NotNil(t, raw.Timestamp)
	assert.Equal(t, activity.UnixSeconds(1_700_000_000), *raw.Timestamp)
}

func TestSignatureToRaw(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())

	raw := signatureToRaw(testSignature(&now))
	assert.Equal(t, testSig, raw.Signature)
	require.NotNil(t, raw.Timestamp)
	assert.Equal(t, activity.UnixSeconds(now), *raw.Timestamp)

	raw = signatureToRaw(testSignature(nil))
	assert.Nil(t, raw.Timestamp)
}

func TestTokenBalanceTransfers(t *testing.T) {
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	carol := solana.NewWallet().PublicKey()

	t.Run("one sender two receivers", func(t *testing.T) {
		pre := []rpc.TokenBalance{
			balance(1, alice, usdcMint, "3000000", 6),
		}
		post := []rpc.TokenBalance{
			balance(1, alice, usdcMint, "0", 6),
			balance(2, bob, usdcMint, "1000000", 6),
			balance(3, carol, usdcMint, "2000000", 6),
		}

		transfers := tokenBalanceTransfers(pre, post)
		require.Len(t, transfers, 2)
		assert.Equal(t, alice.String(), *transfers[0].FromUserAccount)
		assert.Equal(t, bob.String(), *transfers[0].ToUserAccount)
		assert.Equal(t, "1", transfers[0].TokenAmount.String())
		assert.Equal(t, alice.String(), *transfers[1].FromUserAccount)
		assert.Equal(t, carol.String(), *transfers[1].ToUserAccount)
		assert.Equal(t, "2", transfers[1].TokenAmount.String())
	})

	t.Run("burn has no receiver", func(t *testing.T) {
		pre := []rpc.TokenBalance{balance(1, alice, usdcMint, "2500000", 6)}
		post := []rpc.TokenBalance{balance(1, alice, usdcMint, "500000", 6)}

		transfers := tokenBalanceTransfers(pre, post)
		require.Len(t, transfers, 1)
		assert.Equal(t, alice.String(), *transfers[0].FromUserAccount)
		assert.Nil(t, transfers[0].ToUserAccount)
		assert.Equal(t, "2", transfers[0].TokenAmount.String())
	})

	t.Run("mint has no sender", func(t *testing.T) {
		post := []rpc.TokenBalance{balance(2, bob, wsolMint, "5", 0)}

		transfers := tokenBalanceTransfers(nil, post)
		require.Len(t, transfers, 1)
		assert.Nil(t, transfers[0].FromUserAccount)
		assert.Equal(t, bob.String(), *transfers[0].ToUserAccount)
		assert.Equal(t, "5", transfers[0].TokenAmount.String())
	})

	t.Run("unchanged balances are ignored", func(t *testing.T) {
		pre := []rpc.TokenBalance{balance(1, alice, usdcMint, "100", 6)}
		post := []rpc.TokenBalance{balance(1, alice, usdcMint, "100", 6)}

		assert.Empty(t, tokenBalanceTransfers(pre, post))
	})

	t.Run("unknown mint has no name", func(t *testing.T) {
		mint := solana.NewWallet().PublicKey().String()
		pre := []rpc.TokenBalance{balance(1, alice, mint, "10", 0)}
		post := []rpc.TokenBalance{balance(1, alice, mint, "0", 0), balance(2, bob, mint, "10", 0)}

		transfers := tokenBalanceTransfers(pre, post)
		require.Len(t, transfers, 1)
		assert.Nil(t, transfers[0].TokenName)

		normalized := activity.ExtractTransfers(activity.RawTransaction{TokenTransfers: transfers})
		assert.Equal(t, activity.UnknownToken, normalized[0].Token)
	})
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		raw      int64
		decimals uint8
		want     string
	}{
		{1500000, 6, "1.5"},
		{1000000, 6, "1"},
		{1, 6, "0.000001"},
		{10000000, 9, "0.01"},
		{42, 0, "42"},
		{0, 6, "0"},
	}

	for _, tt := range tests {
		got := formatUnits(bigInt(tt.raw), tt.decimals)
		assert.Equal(t, tt.want, got, "formatUnits(%d, %d)", tt.raw, tt.decimals)
	}
}

func TestProgramAndTokenNames(t *testing.T) {
	name := ProgramName("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")
	require.NotNil(t, name)
	assert.True(t, activity.DefaultVenues.Match(*name))

	assert.Nil(t, ProgramName("not-a-program"))
	assert.Nil(t, TokenName("not-a-mint"))
	require.NotNil(t, TokenName(usdcMint))
}

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}
