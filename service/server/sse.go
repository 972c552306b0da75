package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	natspkg "github.com/brojonat/walletpulse/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const keepaliveInterval = 10 * time.Second

// SummaryStream relays published summaries to Server-Sent Events clients.
type SummaryStream struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewSummaryStream connects to NATS and prepares per-connection consumers
// on the summaries stream.
func NewSummaryStream(natsURL string, logger *slog.Logger) (*SummaryStream, error) {
	nc, err := natspkg.Connect(natsURL, "walletpulse-sse")
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	logger.Info("summary stream initialized", "nats_url", natsURL)

	return &SummaryStream{
		nc:     nc,
		js:     js,
		logger: logger,
	}, nil
}

// Close closes the NATS connection.
func (s *SummaryStream) Close() error {
	if s.nc != nil {
		s.nc.Close()
		s.logger.Info("summary stream closed")
	}
	return nil
}

// handleStreamSummaries streams summaries as they are published.
// Without an address path parameter every wallet is streamed.
func handleStreamSummaries(stream *SummaryStream, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")

		subject := natspkg.StreamSubjects
		walletDesc := "all wallets"
		if address != "" {
			if err := validateAddress(address); err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			subject = natspkg.Subject(address)
			walletDesc = address
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		ctx := r.Context()
		logger.DebugContext(ctx, "SSE client connected",
			"wallet", walletDesc,
			"remote_addr", r.RemoteAddr,
		)

		// ephemeral, new messages only
		cons, err := stream.js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, jetstream.ConsumerConfig{
			FilterSubject: subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			DeliverPolicy: jetstream.DeliverNewPolicy,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to create consumer", "wallet", walletDesc, "error", err)
			fmt.Fprintf(w, "event: error\ndata: {\"error\": \"failed to subscribe\"}\n\n")
			flusher.Flush()
			return
		}

		msgChan := make(chan jetstream.Msg, 10)
		doneChan := make(chan struct{})

		go func() {
			defer close(doneChan)
			cc, err := cons.Consume(func(msg jetstream.Msg) {
				select {
				case msgChan <- msg:
				case <-ctx.Done():
				}
			})
			if err != nil {
				logger.ErrorContext(ctx, "failed to start consuming messages", "error", err)
				return
			}
			<-ctx.Done()
			cc.Stop()
		}()

		connected, _ := json.Marshal(map[string]string{"wallet": walletDesc})
		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
		flusher.Flush()

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-keepalive.C:
				fmt.Fprintf(w, ": keepalive\n\n")
				flusher.Flush()

			case msg := <-msgChan:
				event, err := natspkg.DecodeSummaryEvent(msg.Data())
				if err != nil {
					logger.WarnContext(ctx, "failed to decode summary event", "error", err)
					msg.Ack()
					continue
				}

				fmt.Fprintf(w, "event: summary\ndata: %s\n\n", msg.Data())
				flusher.Flush()
				msg.Ack()

				logger.DebugContext(ctx, "sent summary event",
					"wallet", event.Wallet,
					"event_id", event.ID,
				)

			case <-ctx.Done():
				logger.DebugContext(ctx, "SSE client disconnected",
					"wallet", walletDesc,
					"remote_addr", r.RemoteAddr,
				)
				return

			case <-doneChan:
				return
			}
		}
	})
}
