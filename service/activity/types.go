// Package activity classifies wallet transactions into transfer and swap
// events and renders them as a bounded, human-readable report.
package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawTransaction is a wallet transaction as handed over by a fetch source.
// Field names follow the Helius enhanced-transactions payload. Every field is
// optional; absent values are resolved to defaults during extraction.
type RawTransaction struct {
	Signature      string           `json:"signature"`
	Timestamp      *UnixSeconds     `json:"timestamp,omitempty"`
	TokenTransfers []RawTransfer    `json:"tokenTransfers,omitempty"`
	Instructions   []RawInstruction `json:"instructions,omitempty"`
}

// RawTransfer is a single token movement inside a RawTransaction.
type RawTransfer struct {
	TokenName       *string      `json:"tokenName,omitempty"`
	Mint            *string      `json:"mint,omitempty"`
	FromUserAccount *string      `json:"fromUserAccount,omitempty"`
	ToUserAccount   *string      `json:"toUserAccount,omitempty"`
	TokenAmount     *TokenAmount `json:"tokenAmount,omitempty"`
}

// RawInstruction is a top-level instruction of a RawTransaction.
type RawInstruction struct {
	ProgramID   string  `json:"programId,omitempty"`
	ProgramName *string `json:"programName,omitempty"`
}

// UnixSeconds is a block time in seconds since the epoch. It decodes from a
// JSON number or numeric string; anything else decodes to zero.
type UnixSeconds int64

func (u *UnixSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*u = UnixSeconds(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*u = UnixSeconds(int64(f))
		return nil
	}
	*u = 0
	return nil
}

// TokenAmount is a transfer amount in native token units. Sources report it
// either as a JSON number or as a string, so the original text is kept along
// with which of the two it was.
type TokenAmount struct {
	Text    string
	Numeric bool
}

// NumberAmount returns a numeric TokenAmount.
func NumberAmount(v float64) TokenAmount {
	return TokenAmount{Text: strconv.FormatFloat(v, 'f', -1, 64), Numeric: true}
}

// StringAmount returns a TokenAmount reported as text.
func StringAmount(s string) TokenAmount {
	return TokenAmount{Text: s}
}

func (a *TokenAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = TokenAmount{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = TokenAmount{}
			return nil
		}
		*a = StringAmount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		// objects, arrays and booleans carry no usable amount
		*a = TokenAmount{}
		return nil
	}
	*a = NumberAmount(f)
	return nil
}

func (a TokenAmount) MarshalJSON() ([]byte, error) {
	if a.Numeric {
		return []byte(a.Text), nil
	}
	return json.Marshal(a.Text)
}

// Missing reports whether the amount should be treated as absent: an empty
// string or a numeric zero.
func (a TokenAmount) Missing() bool {
	if a.Text == "" {
		return true
	}
	if a.Numeric {
		f, err := strconv.ParseFloat(a.Text, 64)
		return err != nil || f == 0
	}
	return false
}

func (a TokenAmount) String() string {
	return a.Text
}

// NormalizedTransfer is a RawTransfer with every field resolved.
type NormalizedTransfer struct {
	Token  string `json:"token"`
	Mint   string `json:"mint"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// EventKind tags the variant of an Event.
type EventKind string

const (
	KindTransfer EventKind = "transfer"
	KindSwap     EventKind = "swap"
)

// Direction of a transfer relative to the monitored wallet.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// TxRef identifies the transaction an event was derived from.
type TxRef struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// Ref returns the originating transaction reference.
func (r TxRef) Ref() TxRef { return r }

// Event is either a TransferEvent or a SwapEvent.
type Event interface {
	Kind() EventKind
	Ref() TxRef
}

// TransferEvent reports one token movement into or out of the wallet.
type TransferEvent struct {
	TxRef
	Direction    Direction `json:"direction"`
	Counterparty string    `json:"counterparty"`
	Token        string    `json:"token"`
	Mint         string    `json:"mint"`
	Amount       string    `json:"amount"`
}

func (TransferEvent) Kind() EventKind { return KindTransfer }

func (e TransferEvent) MarshalJSON() ([]byte, error) {
	type plain TransferEvent
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		plain
	}{KindTransfer, plain(e)})
}

// SwapEvent reports an exchange of one token for another.
type SwapEvent struct {
	TxRef
	FromToken  string `json:"from_token"`
	FromAmount string `json:"from_amount"`
	ToToken    string `json:"to_token"`
	ToAmount   string `json:"to_amount"`
	Venue      string `json:"venue"`
}

func (SwapEvent) Kind() EventKind { return KindSwap }

func (e SwapEvent) MarshalJSON() ([]byte, error) {
	type plain SwapEvent
	return json.Marshal(struct {
		Type EventKind `json:"type"`
		plain
	}{KindSwap, plain(e)})
}

// Events is an event list that decodes back into concrete event types using
// the "type" field each event is encoded with.
type Events []Event

func (es *Events) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(Events, 0, len(items))
	for _, item := range items {
		var head struct {
			Type EventKind `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return err
		}
		switch head.Type {
		case KindTransfer:
			var e TransferEvent
			if err := json.Unmarshal(item, &e); err != nil {
				return err
			}
			out = append(out, e)
		case KindSwap:
			var e SwapEvent
			if err := json.Unmarshal(item, &e); err != nil {
				return err
			}
			out = append(out, e)
		default:
			return fmt.Errorf("unknown event type %q", head.Type)
		}
	}
	*es = out
	return nil
}
