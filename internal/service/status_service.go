package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// StatusUpdateResult reports the outcome of one bulk status mutation.
type StatusUpdateResult struct {
	Updated  int
	NotFound []string
}

// StatusService applies bulk status transitions. It deliberately enforces
// no transition legality: callers of this path are authoritative external
// signals, so any status may be set from any status.
type StatusService struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewStatusService creates a new StatusService.
func NewStatusService(tasks store.TaskStore, logger *slog.Logger) *StatusService {
	return &StatusService{
		tasks:  tasks,
		logger: logger.With("component", "status_service"),
	}
}

// UpdateStatuses applies the given status -> record ids mapping. Unknown
// ids never abort the rest of the call: they are collected in NotFound
// while the known ids are committed, one batched update per status.
func (s *StatusService) UpdateStatuses(ctx context.Context, updates map[domain.TaskStatus][]uuid.UUID) (*StatusUpdateResult, error) {
	result := &StatusUpdateResult{}

	// Iterate statuses in a fixed order so behavior is deterministic when
	// the same id appears under two statuses.
	statuses := make([]domain.TaskStatus, 0, len(updates))
	for status := range updates {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	for _, status := range statuses {
		if !status.IsValid() {
			return nil, domain.NewValidationError("status",
				fmt.Sprintf("%q is not a recognized status", string(status)),
				domain.ErrInvalidStatus)
		}

		ids := updates[status]
		if len(ids) == 0 {
			continue
		}

		found, err := s.tasks.FilterExisting(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve record ids: %w", err)
		}

		foundSet := make(map[uuid.UUID]bool, len(found))
		for _, id := range found {
			foundSet[id] = true
		}
		for _, id := range ids {
			if !foundSet[id] {
				result.NotFound = append(result.NotFound, id.String())
			}
		}

		updated, err := s.tasks.UpdateStatus(ctx, found, status)
		if err != nil {
			return nil, fmt.Errorf("failed to update status to %s: %w", status, err)
		}
		result.Updated += updated
	}

	s.logger.Info("updated task statuses",
		"updated", result.Updated,
		"not_found", len(result.NotFound))

	return result, nil
}

// ApplyStatus sets one record's status through the same path as the bulk
// endpoint. It reports whether the record existed.
func (s *StatusService) ApplyStatus(ctx context.Context, recordID uuid.UUID, status domain.TaskStatus) (bool, error) {
	res, err := s.UpdateStatuses(ctx, map[domain.TaskStatus][]uuid.UUID{status: {recordID}})
	if err != nil {
		return false, err
	}
	return res.Updated > 0, nil
}
