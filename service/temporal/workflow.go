package temporal

import (
	"fmt"
	"time"

	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var a *Activities // for type-safe activity invocation

// SummarizeWalletWorkflow builds a wallet activity summary and publishes it.
// It is triggered by a per-wallet Temporal schedule.
//
// The workflow performs these steps:
// 1. Fetch and summarize recent transactions (BuildSummary activity)
// 2. Publish the summary to NATS (PublishSummary activity)
func SummarizeWalletWorkflow(ctx workflow.Context, input SummarizeWalletInput) (*SummarizeWalletResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("SummarizeWalletWorkflow started", "wallet", input.Wallet)

	result := &SummarizeWalletResult{
		Wallet:  input.Wallet,
		RunTime: workflow.Now(ctx),
	}

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 120 * time.Second,
		RetryPolicy: &temporalsdk.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	// Step 1: build the summary
	var built *BuildSummaryResult
	err := workflow.ExecuteActivity(ctx, a.BuildSummary, BuildSummaryInput{
		Wallet:      input.Wallet,
		WindowHours: input.WindowHours,
	}).Get(ctx, &built)
	if err != nil {
		errMsg := fmt.Sprintf("failed to build summary: %v", err)
		result.Error = &errMsg
		return result, fmt.Errorf("failed to build summary: %w", err)
	}

	result.WindowHours = built.Summary.WindowHours
	result.Total = built.Summary.Total
	result.Shown = built.Summary.Shown

	// Step 2: publish it
	var published *PublishSummaryResult
	err = workflow.ExecuteActivity(ctx, a.PublishSummary, PublishSummaryInput{
		Source:  built.Source,
		Summary: built.Summary,
	}).Get(ctx, &published)
	if err != nil {
		logger.Error("failed to publish summary", "wallet", input.Wallet, "error", err)
		errMsg := fmt.Sprintf("failed to publish summary: %v", err)
		result.Error = &errMsg
		return result, fmt.Errorf("failed to publish summary: %w", err)
	}

	result.Published = published.Published
	result.EventID = published.EventID

	logger.Info("SummarizeWalletWorkflow completed successfully",
		"wallet", input.Wallet,
		"events", result.Total,
		"published", result.Published,
	)

	return result, nil
}
