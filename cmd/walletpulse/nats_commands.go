package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/walletpulse/service/nats"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

// subscribeCommand subscribes to published summaries.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to published summaries",
		ArgsUsage: "[wallet_address]",
		Description: `Subscribe to summaries published to NATS JetStream.

Summaries are published to the subject: summaries.{wallet_address}
Without an address every wallet's summaries are streamed.

Example:
  walletpulse nats subscribe 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "durable",
				Usage: "Durable consumer name (survives restarts)",
			},
		},
		Action: func(c *cli.Context) error {
			address := c.Args().Get(0)
			natsURL := c.String("nats-url")
			jsonOutput := c.Bool("json")

			nc, err := natspkg.Connect(natsURL, "walletpulse-cli")
			if err != nil {
				return err
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !jsonOutput {
				target := address
				if target == "" {
					target = "all wallets"
				}
				fmt.Fprintf(c.App.Writer, "📡 Listening for summaries (%s). Press Ctrl+C to stop.\n\n", target)
			}

			return natspkg.Subscribe(ctx, js, natspkg.SubscribeOptions{
				Wallet:  address,
				Durable: c.String("durable"),
			}, cliLogger(c), func(event *natspkg.SummaryEvent) error {
				if jsonOutput {
					return json.NewEncoder(c.App.Writer).Encode(event)
				}
				fmt.Fprintf(c.App.Writer, "[%s] %s via %s (%d events)\n%s\n\n",
					event.PublishedAt.Format(time.RFC3339), event.Wallet, event.Source, event.Total, event.Text)
				return nil
			})
		},
	}
}
