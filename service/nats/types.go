package nats

import (
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/google/uuid"
)

// SubjectPrefix prefixes the wallet address in summary subjects.
const SubjectPrefix = "summaries."

// Subject returns the subject summaries for wallet are published to.
func Subject(wallet string) string {
	return SubjectPrefix + wallet
}

// SummaryEvent is a rendered wallet summary published to NATS.
// This is published to the subject "summaries.{wallet_address}" in JetStream.
type SummaryEvent struct {
	// ID deduplicates redeliveries; it is also the JetStream message id.
	ID string `json:"id"`

	Wallet      string  `json:"wallet"`
	WindowHours float64 `json:"window_hours"`
	Source      string  `json:"source,omitempty"`

	Total  int             `json:"total"`
	Shown  int             `json:"shown"`
	Events activity.Events `json:"events"`
	Text   string          `json:"text"`

	PublishedAt time.Time `json:"published_at"`
}

// FromSummary converts a summary to a SummaryEvent with a fresh id.
func FromSummary(summary *activity.Summary, source string) *SummaryEvent {
	events := summary.Events
	if events == nil {
		events = activity.Events{}
	}
	return &SummaryEvent{
		ID:          uuid.NewString(),
		Wallet:      summary.Wallet,
		WindowHours: summary.WindowHours,
		Source:      source,
		Total:       summary.Total,
		Shown:       summary.Shown,
		Events:      events,
		Text:        summary.Text,
		PublishedAt: time.Now().UTC(),
	}
}
