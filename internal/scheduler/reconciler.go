package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/notify"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// StatusApplier applies one record's status through the same path as the
// bulk status endpoint.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, recordID uuid.UUID, status domain.TaskStatus) (bool, error)
}

// Reconciler drains the execution backend's result rows back into durable
// task state. The result table is a mailbox, not a system of record: every
// row read in a run is deleted in that run, whether or not it could be
// mapped onto a task record.
type Reconciler struct {
	tasks    store.TaskStore
	results  store.ResultStore
	statuses StatusApplier
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	tasks store.TaskStore,
	results store.ResultStore,
	statuses StatusApplier,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		tasks:    tasks,
		results:  results,
		statuses: statuses,
		notifier: notifier,
		logger:   logger.With("component", "reconciler"),
	}
}

// Run executes one reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) error {
	rows, err := r.results.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list execution results: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	applied := 0
	orphans := 0
	failed := 0
	drained := make([]string, 0, len(rows))

	for _, res := range rows {
		target := res.TargetStatus()

		rec, err := r.tasks.GetByIdentifier(ctx, res.TaskID)
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			// Orphaned result: nothing to mutate, still drained below.
			orphans++
			r.logger.Warn("result matches no task record",
				"task_id", res.TaskID,
				"result_id", res.ResultID)
		case err != nil:
			r.logger.Error("task lookup failed",
				"task_id", res.TaskID,
				"error", err)
		default:
			if _, err := r.statuses.ApplyStatus(ctx, rec.RecordID, target); err != nil {
				r.logger.Error("failed to apply reconciled status",
					"record_id", rec.RecordID,
					"status", target,
					"error", err)
			} else {
				applied++
			}
		}

		if target == domain.TaskStatusFailed {
			failed++
			r.notifier.Notify(ctx, fmt.Sprintf(
				"Task %s failed: %s", res.TaskID, res.Error))
		}

		drained = append(drained, res.ResultID)
	}

	// Drain regardless of mapping outcome; a row that survives here is
	// retried on the next tick.
	if err := r.results.Delete(ctx, drained); err != nil {
		return fmt.Errorf("failed to drain %d result rows: %w", len(drained), err)
	}

	r.logger.Info("reconciliation run complete",
		"results", len(rows),
		"applied", applied,
		"orphans", orphans,
		"failed", failed)
	return nil
}
