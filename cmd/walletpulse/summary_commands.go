package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brojonat/walletpulse/service/activity"
	"github.com/brojonat/walletpulse/service/config"
	"github.com/brojonat/walletpulse/service/report"
	"github.com/urfave/cli/v2"
)

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Fetch and summarize a wallet's recent activity locally",
		ArgsUsage: "WALLET_ADDRESS",
		Description: `Fetch the wallet's recent transactions from the selected source and render
the activity summary without a server.

Examples:
  walletpulse summary 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU --hours 6
  walletpulse summary 7xKX... --json --jq '.type == "swap"'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Transaction source: helius, rpc or postgres",
				EnvVars: []string{"SOURCE"},
				Value:   config.SourceHelius,
			},
			&cli.Float64Flag{
				Name:    "hours",
				Aliases: []string{"H"},
				Usage:   "Window size in hours",
				EnvVars: []string{"DEFAULT_WINDOW_HOURS"},
				Value:   activity.DefaultWindowHours,
			},
			&cli.IntFlag{
				Name:    "limit",
				Usage:   "Number of transactions to fetch (1-100)",
				EnvVars: []string{"FETCH_LIMIT"},
				Value:   report.DefaultFetchLimit,
			},
			&cli.StringFlag{
				Name:    "helius-api-key",
				Usage:   "Helius API key",
				EnvVars: []string{"HELIUS_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "helius-base-url",
				Usage:   "Helius API base URL",
				EnvVars: []string{"HELIUS_BASE_URL"},
				Value:   "https://api.helius.xyz",
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC URL (comma separated for several)",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "Display time zone",
				EnvVars: []string{"DISPLAY_TIMEZONE"},
				Value:   "Asia/Kolkata",
			},
			&cli.StringFlag{
				Name:    "explorer-url",
				Usage:   "Explorer transaction link prefix",
				EnvVars: []string{"EXPLORER_TX_URL"},
				Value:   "https://solscan.io/tx/",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter applied to each event; all must be truthy (repeatable, implies --json)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall fetch timeout",
				Value: 2 * time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}
			wallet := c.Args().Get(0)

			cfg := &config.Config{
				Source:             c.String("source"),
				HeliusAPIKey:       c.String("helius-api-key"),
				HeliusBaseURL:      c.String("helius-base-url"),
				SolanaRPCURL:       c.String("rpc-url"),
				DatabaseURL:        c.String("database-url"),
				FetchLimit:         c.Int("limit"),
				DefaultWindowHours: activity.DefaultWindowHours,
				DisplayTimezone:    c.String("timezone"),
				ExplorerTxURL:      c.String("explorer-url"),
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			filters, err := compileFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			logger := cliLogger(c)

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			svc, closeFn, err := report.NewServiceFromConfig(ctx, cfg, nil, logger)
			if err != nil {
				return fmt.Errorf("failed to create summary service: %w", err)
			}
			defer closeFn()

			hours := c.Float64("hours")
			summary, err := svc.Summarize(ctx, report.Request{Wallet: wallet, Hours: &hours})
			if err != nil {
				return err
			}

			if c.Bool("json") || len(filters) > 0 {
				return printSummaryJSON(c.App.Writer, summary, filters)
			}
			fmt.Fprintln(c.App.Writer, summary.Text)
			return nil
		},
	}
}

// printSummaryJSON writes the summary as JSON. With filters, only the events
// matching all of them are written, one per line.
func printSummaryJSON(w io.Writer, summary *activity.Summary, filters []*jqFilter) error {
	if len(filters) == 0 {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if summary.Events == nil {
			summary.Events = activity.Events{}
		}
		return enc.Encode(summary)
	}

	enc := json.NewEncoder(w)
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
}

func cliLogger(c *cli.Context) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
