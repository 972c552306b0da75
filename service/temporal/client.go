package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// Client is a production implementation of Scheduler that talks to Temporal.
type Client struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// workflowAction builds the action each schedule run executes.
func (c *Client) workflowAction(wallet string, windowHours *float64) *client.ScheduleWorkflowAction {
	return &client.ScheduleWorkflowAction{
		ID:        "summary-wallet-" + wallet,
		Workflow:  SummarizeWalletWorkflow,
		TaskQueue: c.taskQueue,
		Args: []interface{}{SummarizeWalletInput{
			Wallet:      wallet,
			WindowHours: windowHours,
		}},
	}
}

// CreateWalletSchedule creates a new Temporal schedule for summarizing a wallet.
func (c *Client) CreateWalletSchedule(ctx context.Context, wallet string, interval time.Duration, windowHours *float64) error {
	id := scheduleID(wallet)

	c.logger.Debug("creating wallet schedule",
		"wallet", wallet,
		"schedule_id", id,
		"interval", interval,
	)

	_, err := c.client.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: id,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{
				{Every: interval},
			},
		},
		Action: c.workflowAction(wallet, windowHours),
		Memo: map[string]interface{}{
			"wallet":     wallet,
			"created_by": "walletpulse",
		},
	})
	if err != nil {
		c.logger.Error("failed to create schedule",
			"wallet", wallet,
			"schedule_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to create schedule %q: %w", id, err)
	}

	c.logger.Info("wallet schedule created",
		"wallet", wallet,
		"schedule_id", id,
		"interval", interval,
	)

	return nil
}

// UpsertWalletSchedule creates or updates a Temporal schedule for a wallet.
// If the schedule already exists, its interval and window are replaced.
func (c *Client) UpsertWalletSchedule(ctx context.Context, wallet string, interval time.Duration, windowHours *float64) error {
	id := scheduleID(wallet)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if _, err := handle.Describe(ctx); err != nil {
		c.logger.Debug("schedule not found, creating new one",
			"schedule_id", id,
			"error", err,
		)
		return c.CreateWalletSchedule(ctx, wallet, interval, windowHours)
	}

	err := handle.Update(ctx, client.ScheduleUpdateOptions{
		DoUpdate: func(input client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
			input.Description.Schedule.Spec.Intervals = []client.ScheduleIntervalSpec{
				{Every: interval},
			}
			input.Description.Schedule.Action = c.workflowAction(wallet, windowHours)
			return &client.ScheduleUpdate{
				Schedule: &input.Description.Schedule,
			}, nil
		},
	})
	if err != nil {
		c.logger.Error("failed to update schedule",
			"wallet", wallet,
			"schedule_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to update schedule %q: %w", id, err)
	}

	c.logger.Info("wallet schedule updated",
		"wallet", wallet,
		"schedule_id", id,
		"interval", interval,
	)

	return nil
}

// DeleteWalletSchedule deletes the Temporal schedule for a wallet.
func (c *Client) DeleteWalletSchedule(ctx context.Context, wallet string) error {
	id := scheduleID(wallet)

	handle := c.client.ScheduleClient().GetHandle(ctx, id)
	if err := handle.Delete(ctx); err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return ErrScheduleNotFound
		}
		c.logger.Error("failed to delete schedule",
			"wallet", wallet,
			"schedule_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to delete schedule %q: %w", id, err)
	}

	c.logger.Info("wallet schedule deleted",
		"wallet", wallet,
		"schedule_id", id,
	)

	return nil
}

// SummarizeNow runs SummarizeWalletWorkflow once and waits for its result.
func (c *Client) SummarizeNow(ctx context.Context, input SummarizeWalletInput) (*SummarizeWalletResult, error) {
	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("summary-wallet-%s-adhoc-%d", input.Wallet, time.Now().UnixNano()),
		TaskQueue: c.taskQueue,
	}, SummarizeWalletWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	var result SummarizeWalletResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("workflow failed: %w", err)
	}
	return &result, nil
}

// SDKClient returns the underlying Temporal SDK client for direct workflow operations.
func (c *Client) SDKClient() client.Client {
	return c.client
}

// TaskQueue returns the configured task queue for this client.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}

// temporalLogger adapts slog.Logger to Temporal's logger interface.
type temporalLogger struct {
	logger *slog.Logger
}

func newTemporalLogger(logger *slog.Logger) *temporalLogger {
	return &temporalLogger{logger: logger}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}
