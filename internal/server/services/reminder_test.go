package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/logging"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

func newReminderService(fired func(Reminder)) *ReminderService {
	return NewReminderService(30*time.Second, logging.NewJSONLogger(), fired)
}

func TestReminder_SchedulePastFails(t *testing.T) {
	svc := newReminderService(nil)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	task := &models.Task{ID: 1, Title: "t"}

	err := svc.Schedule(context.Background(), "alice", task, now.Add(-time.Minute))
	assert.ErrorIs(t, err, common.ErrAlreadyPassed)

	err = svc.Schedule(context.Background(), "alice", task, now)
	assert.ErrorIs(t, err, common.ErrAlreadyPassed)

	err = svc.Schedule(context.Background(), "alice", task, now.Add(time.Minute))
	assert.NoError(t, err)
}

func TestReminder_SweepFiresExactlyOnce(t *testing.T) {
	var fired []Reminder
	svc := newReminderService(func(r Reminder) { fired = append(fired, r) })

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Schedule(context.Background(), "alice",
		&models.Task{ID: 1, Title: "due soon"}, now.Add(10*time.Second)))
	require.NoError(t, svc.Schedule(context.Background(), "alice",
		&models.Task{ID: 2, Title: "due later"}, now.Add(time.Hour)))

	svc.now = func() time.Time { return now.Add(30 * time.Second) }
	svc.sweep(context.Background())

	require.Len(t, fired, 1)
	assert.Equal(t, int64(1), fired[0].TaskID)
	assert.Equal(t, "due soon", fired[0].Title)

	// Sweeping again does not refire.
	svc.sweep(context.Background())
	assert.Len(t, fired, 1)

	_, pending := svc.Pending("alice", 1)
	assert.False(t, pending)
	_, pending = svc.Pending("alice", 2)
	assert.True(t, pending)
}

func TestReminder_RescheduleReplaces(t *testing.T) {
	svc := newReminderService(nil)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	task := &models.Task{ID: 1, Title: "t"}
	require.NoError(t, svc.Schedule(context.Background(), "alice", task, now.Add(time.Minute)))
	require.NoError(t, svc.Schedule(context.Background(), "alice", task, now.Add(time.Hour)))

	r, ok := svc.Pending("alice", 1)
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), r.At)
}

func TestReminder_Cancel(t *testing.T) {
	svc := newReminderService(nil)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Schedule(context.Background(), "alice",
		&models.Task{ID: 1, Title: "t"}, now.Add(time.Minute)))

	svc.Cancel("alice", 1)

	_, ok := svc.Pending("alice", 1)
	assert.False(t, ok)
}

func TestReminder_RunStopsOnContextCancel(t *testing.T) {
	svc := NewReminderService(time.Millisecond, logging.NewJSONLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
