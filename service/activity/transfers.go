package activity

// Placeholders substituted for missing transfer fields.
const (
	UnknownToken   = "Unknown Token"
	UnknownAccount = "Unknown"
	UnknownAmount  = "N/A"
)

// ExtractTransfers normalizes the token transfers of a transaction. The result
// has one entry per raw transfer, in order, with every missing field replaced
// by its placeholder.
func ExtractTransfers(tx RawTransaction) []NormalizedTransfer {
	if len(tx.TokenTransfers) == 0 {
		return nil
	}

	out := make([]NormalizedTransfer, 0, len(tx.TokenTransfers))
	for _, t := range tx.TokenTransfers {
		amount := UnknownAmount
		if t.TokenAmount != nil && !t.TokenAmount.Missing() {
			amount = t.TokenAmount.String()
		}
		out = append(out, NormalizedTransfer{
			Token:  orDefault(t.TokenName, UnknownToken),
			Mint:   orDefault(t.Mint, UnknownAccount),
			From:   orDefault(t.FromUserAccount, UnknownAccount),
			To:     orDefault(t.ToUserAccount, UnknownAccount),
			Amount: amount,
		})
	}
	return out
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
