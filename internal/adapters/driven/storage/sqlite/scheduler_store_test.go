package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rememba-cli/internal/core/domain"
)

func testTask(id string) *domain.ScheduledTask {
	return &domain.ScheduledTask{
		ID:       id,
		Name:     "Test Task",
		Interval: 15 * time.Minute,
		Enabled:  true,
	}
}

func TestSchedulerStore_GetTaskMissing(t *testing.T) {
	store := setupTestStore(t)

	task, err := store.SchedulerStore().GetTask(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()
	ctx := context.Background()

	task := testTask(domain.TaskIDConversationAudit)
	task.NextRun = time.Now().UTC().Add(time.Minute)
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, domain.TaskIDConversationAudit)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test Task", got.Name)
	assert.Equal(t, 15*time.Minute, got.Interval)
	assert.True(t, got.Enabled)
	assert.WithinDuration(t, task.NextRun, got.NextRun, time.Second)
	assert.True(t, got.LastRun.IsZero())
}

func TestSchedulerStore_SaveUpdatesExisting(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()
	ctx := context.Background()

	task := testTask("task-1")
	require.NoError(t, scheduler.SaveTask(ctx, task))

	task.LastRun = time.Now().UTC()
	task.LastError = "upstream unavailable"
	task.Enabled = false
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "upstream unavailable", got.LastError)
	assert.False(t, got.Enabled)
	assert.False(t, got.LastRun.IsZero())

	tasks, err := scheduler.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_DeleteTask(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()
	ctx := context.Background()

	require.NoError(t, scheduler.SaveTask(ctx, testTask("task-1")))
	require.NoError(t, scheduler.DeleteTask(ctx, "task-1"))

	task, err := scheduler.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_RecordAndGetHistory(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		result := &domain.TaskResult{
			TaskID:         "task-1",
			StartedAt:      now.Add(time.Duration(i) * time.Minute),
			EndedAt:        now.Add(time.Duration(i)*time.Minute + time.Second),
			Success:        i != 1,
			ItemsProcessed: i,
		}
		if i == 1 {
			result.Error = "transient failure"
		}
		require.NoError(t, scheduler.RecordResult(ctx, result))
	}

	history, err := scheduler.GetTaskHistory(ctx, "task-1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Most recent first.
	assert.Equal(t, 2, history[0].ItemsProcessed)
	assert.True(t, history[0].Success)
	assert.Equal(t, 1, history[1].ItemsProcessed)
	assert.False(t, history[1].Success)
	assert.Equal(t, "transient failure", history[1].Error)
}

func TestSchedulerStore_PruneHistoryKeepsPerTask(t *testing.T) {
	store := setupTestStore(t)
	scheduler := store.SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	for _, taskID := range []string{"task-a", "task-b"} {
		for i := 0; i < 5; i++ {
			result := &domain.TaskResult{
				TaskID:    taskID,
				StartedAt: now.Add(time.Duration(i) * time.Minute),
				EndedAt:   now.Add(time.Duration(i)*time.Minute + time.Second),
				Success:   true,
			}
			require.NoError(t, scheduler.RecordResult(ctx, result))
		}
	}

	require.NoError(t, scheduler.PruneHistory(ctx, 2))

	for _, taskID := range []string{"task-a", "task-b"} {
		history, err := scheduler.GetTaskHistory(ctx, taskID, 10)
		require.NoError(t, err)
		assert.Len(t, history, 2, "task %s", taskID)
	}
}
