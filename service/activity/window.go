package activity

import "time"

// DefaultWindowHours is the recency window used when a caller does not pick one.
const DefaultWindowHours = 24.0

// FilterByWindow returns the transactions whose timestamp is no older than
// hours before now. Transactions without a timestamp are dropped. A zero or
// negative window is valid and only narrows the result.
func FilterByWindow(txns []RawTransaction, hours float64, now time.Time) []RawTransaction {
	sinceMs := float64(now.UnixMilli()) - hours*3600*1000

	out := make([]RawTransaction, 0, len(txns))
	for _, tx := range txns {
		ts, ok := tx.blockTime()
		if !ok {
			continue
		}
		if float64(ts*1000) >= sinceMs {
			out = append(out, tx)
		}
	}
	return out
}

// blockTime returns the timestamp in seconds; zero counts as missing.
func (tx RawTransaction) blockTime() (int64, bool) {
	if tx.Timestamp == nil || *tx.Timestamp == 0 {
		return 0, false
	}
	return int64(*tx.Timestamp), true
}
