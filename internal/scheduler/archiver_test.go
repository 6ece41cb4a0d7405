package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWithAge(t *testing.T, ts *fakeTaskStore, status domain.TaskStatus, age time.Duration) *domain.TaskRecord {
	t.Helper()
	rec, err := domain.NewTaskRecord(domain.Payload{"seed": time.Now().String() + string(status) + age.String()}, status)
	require.NoError(t, err)
	rec.UpdatedAt = time.Now().UTC().Add(-age)
	require.NoError(t, ts.InsertTasks(context.Background(), []*domain.TaskRecord{rec}))
	return rec
}

func TestArchive_RemovesOldCompletedTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ts := newFakeTaskStore()
	oldSuccess := seedWithAge(t, ts, domain.TaskStatusSuccess, 48*time.Hour)
	oldFailed := seedWithAge(t, ts, domain.TaskStatusFailed, 48*time.Hour)
	freshSuccess := seedWithAge(t, ts, domain.TaskStatusSuccess, time.Hour)
	pending := seedWithAge(t, ts, domain.TaskStatusPending, 48*time.Hour)

	a := NewArchiver(ts, rdb, 24*time.Hour, slog.Default())
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, domain.TaskStatus(""), ts.statusOf(oldSuccess.RecordID), "old terminal rows are deleted")
	assert.Equal(t, domain.TaskStatus(""), ts.statusOf(oldFailed.RecordID))
	assert.Equal(t, domain.TaskStatusSuccess, ts.statusOf(freshSuccess.RecordID), "recent rows are kept")
	assert.Equal(t, domain.TaskStatusPending, ts.statusOf(pending.RecordID), "non-terminal rows are never archived")

	members, err := rdb.SMembers(context.Background(), ArchiveSetKey).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{oldSuccess.Identifier, oldFailed.Identifier}, members)
}

func TestArchive_NothingToDo(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ts := newFakeTaskStore()
	seedWithAge(t, ts, domain.TaskStatusSuccess, time.Hour)

	a := NewArchiver(ts, rdb, 24*time.Hour, slog.Default())
	require.NoError(t, a.Run(context.Background()))

	exists, err := rdb.Exists(context.Background(), ArchiveSetKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "no set write when nothing qualifies")
}

func TestArchive_SetWriteFailureRetainsRows(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ts := newFakeTaskStore()
	rec := seedWithAge(t, ts, domain.TaskStatusSuccess, 48*time.Hour)

	mr.Close()

	a := NewArchiver(ts, rdb, 24*time.Hour, slog.Default())
	require.Error(t, a.Run(context.Background()))

	assert.Equal(t, domain.TaskStatusSuccess, ts.statusOf(rec.RecordID),
		"rows are kept when the set write fails")
}
