package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/air-con/task-manager/internal/config"
	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/notify"
	"github.com/air-con/task-manager/internal/queue"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// Replenisher tops the queue up from the PENDING backlog. A run is a
// no-op while the backlog sits at or above the low-water mark; below it,
// the run publishes oldest-first in fixed-size chunks and marks each
// chunk PROCESSING only after its publish is confirmed.
type Replenisher struct {
	tasks     store.TaskStore
	publisher queue.Publisher
	notifier  notify.Notifier
	cfg       config.SchedulerConfig
	priority  int
	logger    *slog.Logger
}

// NewReplenisher creates a Replenisher publishing at the given default
// priority.
func NewReplenisher(
	tasks store.TaskStore,
	publisher queue.Publisher,
	notifier notify.Notifier,
	cfg config.SchedulerConfig,
	priority int,
	logger *slog.Logger,
) *Replenisher {
	return &Replenisher{
		tasks:     tasks,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
		priority:  priority,
		logger:    logger.With("component", "replenisher"),
	}
}

// Run executes one replenishment pass.
//
// A publish failure leaves that chunk's records PENDING and aborts the
// remaining chunks: a record is PROCESSING if and only if its chunk was
// confirmed published. The partial progress made before the failure is
// kept.
func (r *Replenisher) Run(ctx context.Context) error {
	pending, err := r.tasks.CountByStatus(ctx, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to count backlog: %w", err)
	}

	if pending >= r.cfg.LowWaterMark {
		r.logger.Debug("backlog above low-water mark, skipping run",
			"pending", pending,
			"low_water_mark", r.cfg.LowWaterMark)
		return nil
	}

	need := r.cfg.HighWaterMark - pending
	if need > r.cfg.MaxReplenish {
		need = r.cfg.MaxReplenish
	}

	records, err := r.tasks.ListByStatus(ctx, domain.TaskStatusPending, need)
	if err != nil {
		return fmt.Errorf("failed to fetch backlog slice: %w", err)
	}

	if len(records) < need {
		r.logger.Warn("backlog critically low",
			"available", len(records),
			"wanted", need)
		r.notifier.Notify(ctx, fmt.Sprintf(
			"Task backlog critically low: %d pending, wanted %d for replenishment.",
			len(records), need))
	}
	if len(records) == 0 {
		return nil
	}

	published := 0
	for start := 0; start < len(records); start += r.cfg.ChunkSize {
		end := start + r.cfg.ChunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		batch := make([]domain.Payload, len(chunk))
		ids := make([]uuid.UUID, len(chunk))
		for i, rec := range chunk {
			batch[i] = rec.Payload
			ids[i] = rec.RecordID
		}

		if err := r.publisher.Publish(ctx, batch, r.priority); err != nil {
			r.logger.Error("publish failed, aborting run",
				"published", published,
				"remaining", len(records)-published,
				"error", err)
			r.notifier.Notify(ctx, fmt.Sprintf(
				"Replenishment aborted after %d of %d records: publish failed: %v",
				published, len(records), err))
			return fmt.Errorf("publish failed after %d records: %w", published, err)
		}

		if _, err := r.tasks.UpdateStatus(ctx, ids, domain.TaskStatusProcessing); err != nil {
			// The chunk is on the queue but still PENDING in the store;
			// the next run may publish it again. Surface and stop.
			r.logger.Error("status update failed after publish, aborting run",
				"published", published,
				"error", err)
			r.notifier.Notify(ctx, fmt.Sprintf(
				"Replenishment aborted: %d records published but not marked dispatched: %v",
				len(chunk), err))
			return fmt.Errorf("failed to mark chunk dispatched: %w", err)
		}

		published += len(chunk)
	}

	r.logger.Info("replenishment run complete",
		"published", published,
		"pending_before", pending)
	return nil
}
