package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_StartAndStop(t *testing.T) {
	f := setupSweep(t, 14)
	scheduler := NewScheduler(f.sweeper, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())

	next := scheduler.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	f := setupSweep(t, 14)
	scheduler := NewScheduler(f.sweeper, "not a cron expression")

	err := scheduler.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, scheduler.IsRunning())
}

func TestScheduler_EmptyScheduleIsNoop(t *testing.T) {
	f := setupSweep(t, 14)
	scheduler := NewScheduler(f.sweeper, "")

	require.NoError(t, scheduler.Start(context.Background()))
	assert.False(t, scheduler.IsRunning())
	assert.Nil(t, scheduler.NextRun())
}
