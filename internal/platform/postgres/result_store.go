package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
)

// ResultStore implements store.ResultStore over the execution backend's
// result table. The engine only ever reads and deletes rows here; the
// backend owns the writes.
type ResultStore struct {
	db store.DBTX
}

// NewResultStore creates a new ResultStore.
func NewResultStore(db store.DBTX) *ResultStore {
	return &ResultStore{db: db}
}

// ListAll returns every result row currently present, oldest first.
func (s *ResultStore) ListAll(ctx context.Context) ([]*domain.ExecutionResult, error) {
	query := `
		SELECT result_id, task_id, state, success, input,
		       error, exception, traceback, response_json, created_at
		FROM task_results
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution results: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.ExecutionResult

	for rows.Next() {
		var (
			r         domain.ExecutionResult
			createdAt time.Time
		)
		if err := rows.Scan(
			&r.ResultID,
			&r.TaskID,
			&r.State,
			&r.Success,
			&r.Input,
			&r.Error,
			&r.Exception,
			&r.Traceback,
			&r.ResponseJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan execution result row: %w", MapError(err))
		}
		r.CreatedAt = createdAt
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution result rows: %w", MapError(err))
	}

	return results, nil
}

// Delete removes the given result rows. Missing rows are not an error:
// draining is idempotent across overlapping runs.
func (s *ResultStore) Delete(ctx context.Context, resultIDs []string) error {
	if len(resultIDs) == 0 {
		return nil
	}

	query := `DELETE FROM task_results WHERE result_id = ANY($1)`

	if _, err := s.db.ExecContext(ctx, query, resultIDs); err != nil {
		return fmt.Errorf("%w: %v", store.ErrDeleteFailed, MapError(err))
	}

	return nil
}
