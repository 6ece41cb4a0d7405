package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// IngestResult reports the outcome of one ingestion call.
type IngestResult struct {
	Accepted    int
	Duplicate   int
	AcceptedIDs []uuid.UUID
}

// IngestService admits new work exactly once despite duplicate submissions.
// Each payload gets a content identifier; payloads whose identifier already
// exists in the store (or earlier in the same batch) are counted as
// duplicates, the rest are persisted as PENDING in one batched write.
type IngestService struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(tasks store.TaskStore, logger *slog.Logger) *IngestService {
	return &IngestService{
		tasks:  tasks,
		logger: logger.With("component", "ingest_service"),
	}
}

// Ingest deduplicates and persists the given payloads. The write is
// all-or-nothing: on a store failure, no payload is reported as accepted.
//
// The duplicate check is read-then-write without store-side locking, so two
// concurrent submissions of the same payload can both be admitted. That
// weak guarantee is deliberate; see DESIGN.md.
func (s *IngestService) Ingest(ctx context.Context, payloads []domain.Payload) (*IngestResult, error) {
	result := &IngestResult{}
	if len(payloads) == 0 {
		return result, nil
	}

	// Deduplicate within the batch first so an identical payload submitted
	// twice in one call never reaches the store twice.
	type candidate struct {
		payload    domain.Payload
		identifier string
	}

	seen := make(map[string]bool, len(payloads))
	candidates := make([]candidate, 0, len(payloads))
	identifiers := make([]string, 0, len(payloads))

	for i, p := range payloads {
		identifier, err := p.Identifier()
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}

		if seen[identifier] {
			result.Duplicate++
			continue
		}
		seen[identifier] = true
		candidates = append(candidates, candidate{payload: p, identifier: identifier})
		identifiers = append(identifiers, identifier)
	}

	existing, err := s.tasks.ExistingIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}

	records := make([]*domain.TaskRecord, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.identifier] {
			result.Duplicate++
			continue
		}

		rec, err := domain.NewTaskRecord(c.payload, domain.TaskStatusPending)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := s.tasks.InsertTasks(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to persist accepted tasks: %w", err)
		}
	}

	for _, rec := range records {
		result.AcceptedIDs = append(result.AcceptedIDs, rec.RecordID)
	}
	result.Accepted = len(records)

	s.logger.Info("ingested tasks",
		"submitted", len(payloads),
		"accepted", result.Accepted,
		"duplicate", result.Duplicate)

	return result, nil
}
