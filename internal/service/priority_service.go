package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/queue"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// FailedInjection identifies a payload that could not be published, by its
// position in the submitted list.
type FailedInjection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// InjectResult reports the outcome of one priority injection call.
type InjectResult struct {
	PublishedIDs []uuid.UUID
	Failed       []FailedInjection
}

// PriorityService is the synchronous fast path around the backlog: each
// payload is published immediately at elevated priority and persisted as
// PROCESSING. Priority submissions are assumed intentional and are never
// deduplicated against existing backlog.
type PriorityService struct {
	tasks     store.TaskStore
	publisher queue.Publisher
	logger    *slog.Logger
}

// NewPriorityService creates a new PriorityService.
func NewPriorityService(tasks store.TaskStore, publisher queue.Publisher, logger *slog.Logger) *PriorityService {
	return &PriorityService{
		tasks:     tasks,
		publisher: publisher,
		logger:    logger.With("component", "priority_service"),
	}
}

// Inject publishes each payload as its own single-item batch at the given
// priority, then persists every published payload as a PROCESSING record.
// A payload whose publish fails is reported in Failed and never persisted;
// payloads already published in the same call are persisted regardless.
func (s *PriorityService) Inject(ctx context.Context, payloads []domain.Payload, priority int) (*InjectResult, error) {
	if err := queue.ValidatePriority(priority); err != nil {
		return nil, err
	}

	result := &InjectResult{}
	if len(payloads) == 0 {
		return result, nil
	}

	published := make([]*domain.TaskRecord, 0, len(payloads))

	for i, p := range payloads {
		rec, err := domain.NewTaskRecord(p, domain.TaskStatusProcessing)
		if err != nil {
			result.Failed = append(result.Failed, FailedInjection{Index: i, Reason: err.Error()})
			continue
		}

		if err := s.publisher.Publish(ctx, []domain.Payload{p}, priority); err != nil {
			s.logger.Error("priority publish failed", "index", i, "error", err)
			result.Failed = append(result.Failed, FailedInjection{Index: i, Reason: "publish failed"})
			continue
		}

		published = append(published, rec)
	}

	if len(published) > 0 {
		if err := s.tasks.InsertTasks(ctx, published); err != nil {
			// The messages are already on the queue; surface the store
			// failure rather than pretending the records exist.
			return nil, fmt.Errorf("published %d tasks but failed to persist them: %w", len(published), err)
		}
	}

	for _, rec := range published {
		result.PublishedIDs = append(result.PublishedIDs, rec.RecordID)
	}

	s.logger.Info("injected priority tasks",
		"submitted", len(payloads),
		"published", len(result.PublishedIDs),
		"failed", len(result.Failed),
		"priority", priority)

	return result, nil
}
