package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ArchiveSetKey is the redis set holding the content identifiers of
// archived tasks.
const ArchiveSetKey = "tasks:archived"

// Archiver moves completed tasks out of the row store once they are old
// enough. Identifiers are recorded in a redis set before the rows are
// deleted; if the set write fails the rows are kept, so an archived
// identifier is never lost.
type Archiver struct {
	tasks  store.TaskStore
	rdb    *redis.Client
	age    time.Duration
	logger *slog.Logger
}

// NewArchiver creates an Archiver removing terminal records older than age.
func NewArchiver(tasks store.TaskStore, rdb *redis.Client, age time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		tasks:  tasks,
		rdb:    rdb,
		age:    age,
		logger: logger.With("component", "archiver"),
	}
}

// Run executes one archiving pass.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-a.age)

	records, err := a.tasks.ListCompletedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list completed tasks: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	members := make([]any, len(records))
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		members[i] = rec.Identifier
		ids[i] = rec.RecordID
	}

	if err := a.rdb.SAdd(ctx, ArchiveSetKey, members...).Err(); err != nil {
		return fmt.Errorf("archive set write failed, rows retained: %w", err)
	}

	if err := a.tasks.DeleteTasks(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete archived tasks: %w", err)
	}

	a.logger.Info("archive run complete",
		"archived", len(records),
		"cutoff", cutoff)
	return nil
}
