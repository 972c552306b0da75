package temporal

import (
	"context"
	"errors"
	"time"
)

// ErrScheduleNotFound is returned when deleting a schedule that doesn't exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// Scheduler manages Temporal schedules for wallet summaries.
// Each wallet gets its own schedule that triggers the SummarizeWalletWorkflow.
type Scheduler interface {
	// UpsertWalletSchedule creates the wallet's schedule or updates its
	// interval and window if it exists.
	UpsertWalletSchedule(ctx context.Context, wallet string, interval time.Duration, windowHours *float64) error

	// DeleteWalletSchedule deletes the schedule for a wallet.
	DeleteWalletSchedule(ctx context.Context, wallet string) error
}

// scheduleID returns the Temporal schedule ID for a wallet address.
func scheduleID(wallet string) string {
	return "summary-wallet-" + wallet
}
