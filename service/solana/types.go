package solana

// Program names reported for well-known programs. Exchange entries carry the
// venue's domain so the swap detector can recognize them.
var knownPrograms = map[string]string{
	"11111111111111111111111111111111":             "System Program",
	"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA":  "Token Program",
	"TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb":  "Token-2022 Program",
	"ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL": "Associated Token Account Program",
	"ComputeBudget111111111111111111111111111111":  "Compute Budget Program",
	"MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr":  "Memo Program",
	"Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo":  "Memo Program v1",

	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  "Jupiter Aggregator v6 (jup.ag)",
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB":  "Jupiter Aggregator v4 (jup.ag)",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium AMM v4 (raydium.io)",
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": "Raydium CLMM (raydium.io)",
	"CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C": "Raydium CPMM (raydium.io)",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "Orca Whirlpools (orca.so)",
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": "Orca Token Swap v2 (orca.so)",
}

// Token names for well-known mints.
var knownMints = map[string]string{
	"So11111111111111111111111111111111111111112":  "Wrapped SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USD Coin",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "Jupiter",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "Bonk",
}

// ProgramName returns the display name of a program, or nil if unknown.
func ProgramName(programID string) *string {
	name, ok := knownPrograms[programID]
	if !ok {
		return nil
	}
	return &name
}

// TokenName returns the display name of a mint, or nil if unknown.
func TokenName(mint string) *string {
	name, ok := knownMints[mint]
	if !ok {
		return nil
	}
	return &name
}
