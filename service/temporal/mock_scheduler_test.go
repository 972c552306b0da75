package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockScheduler(t *testing.T) {
	ctx := context.Background()
	s := NewMockScheduler()
	var _ Scheduler = s

	require.NoError(t, s.UpsertWalletSchedule(ctx, "W1", time.Hour, nil))
	assert.True(t, s.ScheduleExists("W1"))
	interval, ok := s.GetScheduleInterval("W1")
	require.True(t, ok)
	assert.Equal(t, time.Hour, interval)

	hours := 6.0
	require.NoError(t, s.UpsertWalletSchedule(ctx, "W1", 10*time.Minute, &hours))
	interval, _ = s.GetScheduleInterval("W1")
	assert.Equal(t, 10*time.Minute, interval)
	require.NotNil(t, s.GetScheduleWindow("W1"))
	assert.Equal(t, 1, s.ScheduleCount())

	require.NoError(t, s.DeleteWalletSchedule(ctx, "W1"))
	assert.ErrorIs(t, s.DeleteWalletSchedule(ctx, "W1"), ErrScheduleNotFound)
	assert.False(t, s.ScheduleExists("W1"))
}

func TestScheduleID(t *testing.T) {
	assert.Equal(t, "summary-wallet-W1", scheduleID("W1"))
}
