package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *activity.Summary {
	return &activity.Summary{
		Wallet:      "W1",
		WindowHours: 24,
		Considered:  1,
		Events: activity.Events{
			activity.TransferEvent{
				TxRef:        activity.TxRef{Signature: "sig1", Timestamp: 1_700_000_000},
				Direction:    activity.DirectionSent,
				Counterparty: "X",
				Token:        "USDC",
				Mint:         "mint-usdc",
				Amount:       "5",
			},
		},
		Total: 1,
		Shown: 1,
		Text:  "## report",
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "summaries.W1", Subject("W1"))
	assert.Equal(t, "summaries.*", StreamSubjects)
}

func TestFromSummary(t *testing.T) {
	event := FromSummary(sampleSummary(), "helius")

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "W1", event.Wallet)
	assert.Equal(t, 24.0, event.WindowHours)
	assert.Equal(t, "helius", event.Source)
	assert.Equal(t, 1, event.Total)
	assert.Len(t, event.Events, 1)
	assert.WithinDuration(t, time.Now(), event.PublishedAt, 5*time.Second)

	other := FromSummary(sampleSummary(), "helius")
	assert.NotEqual(t, event.ID, other.ID)
}

func TestFromSummary_NoEvents(t *testing.T) {
	event := FromSummary(&activity.Summary{Wallet: "W1"}, "rpc")

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"events":[]`)
}

func TestDecodeSummaryEvent(t *testing.T) {
	event := FromSummary(sampleSummary(), "helius")
	data, err := json.Marshal(event)
	require.NoError(t, err)

	decoded, err := DecodeSummaryEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	require.Len(t, decoded.Events, 1)
	transfer, ok := decoded.Events[0].(activity.TransferEvent)
	require.True(t, ok)
	assert.Equal(t, "sig1", transfer.Signature)

	_, err = DecodeSummaryEvent([]byte("not json"))
	assert.Error(t, err)
}

func TestStreamConfig(t *testing.T) {
	cfg := StreamConfig()
	assert.Equal(t, "SUMMARIES", cfg.Name)
	assert.Equal(t, []string{"summaries.*"}, cfg.Subjects)
	assert.Equal(t, jetstream.LimitsPolicy, cfg.Retention)
	assert.Equal(t, DuplicateWindow, cfg.Duplicates)
}

func TestMockPublisher(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()
	var _ Publisher = mock

	require.NoError(t, mock.PublishSummary(ctx, FromSummary(sampleSummary(), "helius")))
	other := sampleSummary()
	other.Wallet = "W2"
	require.NoError(t, mock.PublishSummary(ctx, FromSummary(other, "helius")))

	assert.Equal(t, 2, mock.GetPublishedEventCount())
	assert.Len(t, mock.GetPublishedEventsForWallet("W1"), 1)

	mock.SetPublishError(assert.AnError)
	assert.ErrorIs(t, mock.PublishSummary(ctx, FromSummary(sampleSummary(), "helius")), assert.AnError)
	assert.Equal(t, 2, mock.GetPublishedEventCount())

	require.NoError(t, mock.Close())
	assert.True(t, mock.IsClosed())

	mock.Reset()
	assert.Equal(t, 0, mock.GetPublishedEventCount())
	assert.False(t, mock.IsClosed())
}
