package solana

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/gagliardetto/solana-go/rpc"
)

// signatureToRaw converts signature metadata to a RawTransaction without
// transfers or instructions.
func signatureToRaw(sig *rpc.TransactionSignature) activity.RawTransaction {
	raw := activity.RawTransaction{
		Signature: sig.Signature.String(),
	}
	if sig.BlockTime != nil {
		ts := activity.UnixSeconds(sig.BlockTime.Time().Unix())
		raw.Timestamp = &ts
	}
	return raw
}

// parseTransactionFromResult builds a RawTransaction from a full transaction.
// Top-level instructions are labeled with known program names and token
// transfers are derived from the pre/post token balances.
func parseTransactionFromResult(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) (activity.RawTransaction, error) {
	raw := signatureToRaw(sig)

	// failed transactions move no tokens
	if sig.Err != nil || result == nil {
		return raw, nil
	}

	if raw.Timestamp == nil && result.BlockTime != nil {
		ts := activity.UnixSeconds(result.BlockTime.Time().Unix())
		raw.Timestamp = &ts
	}

	if result.Transaction == nil {
		return raw, nil
	}
	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return raw, fmt.Errorf("failed to decode transaction: %w", err)
	}

	accountKeys := tx.Message.AccountKeys
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		programID := accountKeys[instruction.ProgramIDIndex].String()
		raw.Instructions = append(raw.Instructions, activity.RawInstruction{
			ProgramID:   programID,
			ProgramName: ProgramName(programID),
		})
	}

	if result.Meta != nil {
		raw.TokenTransfers = tokenBalanceTransfers(result.Meta.PreTokenBalances, result.Meta.PostTokenBalances)
	}

	return raw, nil
}

// balanceChange is the net change of one token account over a transaction.
type balanceChange struct {
	accountIndex uint16
	owner        string
	mint         string
	decimals     uint8
	delta        *big.Int
}

// tokenBalanceTransfers pairs token accounts whose balance fell with accounts
// of the same mint whose balance rose. Each receiving account produces one
// transfer from the largest sender of that mint. Unmatched senders or
// receivers produce a transfer with the other side left empty.
func tokenBalanceTransfers(pre, post []rpc.TokenBalance) []activity.RawTransfer {
	changes := balanceChanges(pre, post)

	senders := make(map[string][]*balanceChange)
	receivers := make(map[string][]*balanceChange)
	var mints []string
	seen := make(map[string]bool)
	for _, c := range changes {
		if !seen[c.mint] {
			seen[c.mint] = true
			mints = append(mints, c.mint)
		}
		if c.delta.Sign() < 0 {
			senders[c.mint] = append(senders[c.mint], c)
		} else {
			receivers[c.mint] = append(receivers[c.mint], c)
		}
	}

	var transfers []activity.RawTransfer
	for _, mint := range mints {
		from := largestSender(senders[mint])
		if len(receivers[mint]) == 0 {
			if from != nil {
				transfers = append(transfers, newTransfer(mint, from, nil, from))
			}
			continue
		}
		for _, to := range receivers[mint] {
			transfers = append(transfers, newTransfer(mint, from, to, to))
		}
	}
	return transfers
}

func balanceChanges(pre, post []rpc.TokenBalance) []*balanceChange {
	byIndex := make(map[uint16]*balanceChange)
	get := func(b rpc.TokenBalance) *balanceChange {
		c, ok := byIndex[b.AccountIndex]
		if !ok {
			c = &balanceChange{accountIndex: b.AccountIndex, mint: b.Mint.String(), delta: new(big.Int)}
			byIndex[b.AccountIndex] = c
		}
		if b.Owner != nil {
			c.owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			c.decimals = b.UiTokenAmount.Decimals
		}
		return c
	}

	for _, b := range pre {
		c := get(b)
		c.delta.Sub(c.delta, rawAmount(b))
	}
	for _, b := range post {
		c := get(b)
		c.delta.Add(c.delta, rawAmount(b))
	}

	changes := make([]*balanceChange, 0, len(byIndex))
	for _, c := range byIndex {
		if c.delta.Sign() != 0 {
			changes = append(changes, c)
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].accountIndex < changes[j].accountIndex
	})
	return changes
}

func rawAmount(b rpc.TokenBalance) *big.Int {
	v := new(big.Int)
	if b.UiTokenAmount == nil {
		return v
	}
	if _, ok := v.SetString(b.UiTokenAmount.Amount, 10); !ok {
		return new(big.Int)
	}
	return v
}

func largestSender(candidates []*balanceChange) *balanceChange {
	var best *balanceChange
	for _, c := range candidates {
		// deltas are negative, so the largest outflow is the smallest value
		if best == nil || c.delta.Cmp(best.delta) < 0 {
			best = c
		}
	}
	return best
}

func newTransfer(mint string, from, to, amountFrom *balanceChange) activity.RawTransfer {
	t := activity.RawTransfer{
		Mint:      &mint,
		TokenName: TokenName(mint),
		TokenAmount: &activity.TokenAmount{
			Text:    formatUnits(new(big.Int).Abs(amountFrom.delta), amountFrom.decimals),
			Numeric: true,
		},
	}
	if from != nil && from.owner != "" {
		owner := from.owner
		t.FromUserAccount = &owner
	}
	if to != nil && to.owner != "" {
		owner := to.owner
		t.ToUserAccount = &owner
	}
	return t
}

// formatUnits renders a raw integer amount with the given number of decimals,
// trimming trailing zeros: formatUnits(1500000, 6) == "1.5".
func formatUnits(v *big.Int, decimals uint8) string {
	s := v.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
