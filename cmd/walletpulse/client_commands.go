package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/walletpulse/client"
	"github.com/urfave/cli/v2"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "HTTP client commands for interacting with a walletpulse server",
		Subcommands: []*cli.Command{
			clientSummaryCommand(),
			clientToolCommand(),
			watchCommand(),
		},
	}
}

func newHTTPClient(c *cli.Context) (*client.Client, error) {
	serverURL := c.String("server-url")
	if serverURL == "" {
		return nil, fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
	}
	return client.NewClient(serverURL, nil, cliLogger(c)), nil
}

func clientSummaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Fetch a wallet summary from the server",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "hours",
				Aliases: []string{"H"},
				Usage:   "Window size in hours (server default when unset)",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter applied to each event (repeatable, implies --json)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)

			cl, err := newHTTPClient(c)
			if err != nil {
				return err
			}

			filters, err := compileFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			var hours *float64
			if c.IsSet("hours") {
				h := c.Float64("hours")
				hours = &h
			}

			if !c.Bool("json") && len(filters) == 0 {
				text, err := cl.Text(c.Context, address, hours)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, text)
				return nil
			}

			summary, err := cl.Summary(c.Context, address, hours)
			if err != nil {
				return err
			}

			if len(filters) == 0 {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			enc := json.NewEncoder(c.App.Writer)
			for _, ev := range summary.Events {
				doc, err := toJQValue(ev)
				if err != nil {
					return err
				}
				ok, err := matchAll(filters, doc)
				if err != nil {
					return err
				}
				if ok {
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func clientToolCommand() *cli.Command {
	return &cli.Command{
		Name:      "tool",
		Usage:     "Describe or invoke the wallet-monitor tool",
		ArgsUsage: "[WALLET_ADDRESS]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "timeframe-hours",
				Usage: "Tool timeframe in hours (tool default when unset)",
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := newHTTPClient(c)
			if err != nil {
				return err
			}

			if c.NArg() == 0 {
				desc, err := cl.Tool(c.Context)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(desc)
			}

			var hours *float64
			if c.IsSet("timeframe-hours") {
				h := c.Float64("timeframe-hours")
				hours = &h
			}
			text, err := cl.InvokeTool(c.Context, c.Args().Get(0), hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, text)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Stream published summaries from the server (SSE)",
		ArgsUsage: "[WALLET_ADDRESS]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Stop after this long (0 streams until interrupted)",
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := newHTTPClient(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout := c.Duration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			jsonOutput := c.Bool("json")
			err = cl.Watch(ctx, c.Args().Get(0), func(event *client.SummaryEvent) error {
				if jsonOutput {
					return json.NewEncoder(c.App.Writer).Encode(event)
				}
				fmt.Fprintf(c.App.Writer, "[%s] %s (%d events)\n%s\n\n",
					event.PublishedAt.Format(time.RFC3339), event.Wallet, event.Total, event.Text)
				return nil
			})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}
}
