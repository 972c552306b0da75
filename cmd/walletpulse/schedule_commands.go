package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brojonat/walletpulse/service/temporal"
	"github.com/urfave/cli/v2"
)

func newTemporalClient(c *cli.Context) (*temporal.Client, error) {
	return temporal.NewClient(
		c.String("temporal-host"),
		c.String("temporal-namespace"),
		c.String("temporal-task-queue"),
		cliLogger(c),
	)
}

func windowFlag() cli.Flag {
	return &cli.Float64Flag{
		Name:  "window-hours",
		Usage: "Summary window in hours (worker default when unset)",
	}
}

func windowFromFlag(c *cli.Context) *float64 {
	if !c.IsSet("window-hours") {
		return nil
	}
	h := c.Float64("window-hours")
	return &h
}

func addScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create or update the recurring summary schedule for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "How often to summarize",
				Value:   time.Hour,
			},
			windowFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)
			interval := c.Duration("interval")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive")
			}

			tc, err := newTemporalClient(c)
			if err != nil {
				return err
			}
			defer tc.Close()

			if err := tc.UpsertWalletSchedule(c.Context, address, interval, windowFromFlag(c)); err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "✓ Schedule set for %s every %s\n", address, interval)
			return nil
		},
	}
}

func removeScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Delete the recurring summary schedule for a wallet",
		ArgsUsage: "WALLET_ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}
			address := c.Args().Get(0)

			tc, err := newTemporalClient(c)
			if err != nil {
				return err
			}
			defer tc.Close()

			if err := tc.DeleteWalletSchedule(c.Context, address); err != nil {
				if errors.Is(err, temporal.ErrScheduleNotFound) {
					return fmt.Errorf("no schedule for %s", address)
				}
				return err
			}

			fmt.Fprintf(c.App.Writer, "✓ Schedule removed for %s\n", address)
			return nil
		},
	}
}

func runNowCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the summary workflow once and wait for it",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			windowFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet address is required")
			}

			tc, err := newTemporalClient(c)
			if err != nil {
				return err
			}
			defer tc.Close()

			result, err := tc.SummarizeNow(c.Context, temporal.SummarizeWalletInput{
				Wallet:      c.Args().Get(0),
				WindowHours: windowFromFlag(c),
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(c.App.Writer, "Wallet:    %s\n", result.Wallet)
			fmt.Fprintf(c.App.Writer, "Window:    %vh\n", result.WindowHours)
			fmt.Fprintf(c.App.Writer, "Events:    %d (%d shown)\n", result.Total, result.Shown)
			fmt.Fprintf(c.App.Writer, "Published: %v\n", result.Published)
			if result.EventID != "" {
				fmt.Fprintf(c.App.Writer, "Event ID:  %s\n", result.EventID)
			}
			return nil
		},
	}
}
