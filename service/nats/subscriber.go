package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// SubscribeOptions configures Subscribe.
type SubscribeOptions struct {
	// Wallet filters to one wallet; empty receives every wallet.
	Wallet string
	// Durable names a consumer that survives restarts; empty is ephemeral.
	Durable string
}

// Subscribe delivers summary events to handle until ctx is done. Messages that
// do not decode are acknowledged and skipped.
func Subscribe(ctx context.Context, js jetstream.JetStream, opts SubscribeOptions, logger *slog.Logger, handle func(*SummaryEvent) error) error {
	subject := StreamSubjects
	if opts.Wallet != "" {
		subject = Subject(opts.Wallet)
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       opts.Durable,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		event, err := DecodeSummaryEvent(msg.Data())
		if err != nil {
			logger.Warn("skipping undecodable message", "subject", msg.Subject(), "error", err)
			_ = msg.Ack()
			return
		}
		if err := handle(event); err != nil {
			logger.Error("summary handler failed", "id", event.ID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}

// DecodeSummaryEvent parses a published summary event.
func DecodeSummaryEvent(data []byte) (*SummaryEvent, error) {
	var event SummaryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode summary event: %w", err)
	}
	return &event, nil
}
