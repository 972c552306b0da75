package activity

// Classifier turns raw transactions into activity events for one wallet.
type Classifier struct {
	wallet string
	venues VenueSet
}

// NewClassifier creates a Classifier for wallet. If venues is nil the
// DefaultVenues are used.
func NewClassifier(wallet string, venues VenueSet) *Classifier {
	if venues == nil {
		venues = DefaultVenues
	}
	return &Classifier{wallet: wallet, venues: venues}
}

// Classify returns the events of one transaction: a TransferEvent per
// transfer, followed by a single SwapEvent when the transaction is a swap.
//
// A transfer is "sent" only when its sender is exactly the wallet; every other
// transfer is reported as "received", including ones where the wallet is not
// the recipient either.
func (c *Classifier) Classify(tx RawTransaction) []Event {
	transfers := ExtractTransfers(tx)
	ts, _ := tx.blockTime()
	ref := TxRef{Signature: tx.Signature, Timestamp: ts}

	events := make([]Event, 0, len(transfers)+1)
	for _, t := range transfers {
		ev := TransferEvent{
			TxRef:        ref,
			Direction:    DirectionReceived,
			Counterparty: t.From,
			Token:        t.Token,
			Mint:         t.Mint,
			Amount:       t.Amount,
		}
		if t.From == c.wallet {
			ev.Direction = DirectionSent
			ev.Counterparty = t.To
		}
		events = append(events, ev)
	}

	if c.venues.DetectSwap(tx.Instructions, len(transfers)) {
		in, out := transfers[0], transfers[1]
		events = append(events, SwapEvent{
			TxRef:      ref,
			FromToken:  in.Token,
			FromAmount: in.Amount,
			ToToken:    out.Token,
			ToAmount:   out.Amount,
			Venue:      SwapVenueLabel,
		})
	}
	return events
}

// ClassifyAll classifies txns in order and concatenates their events.
func (c *Classifier) ClassifyAll(txns []RawTransaction) []Event {
	var events []Event
	for _, tx := range txns {
		events = append(events, c.Classify(tx)...)
	}
	return events
}
