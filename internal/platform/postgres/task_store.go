package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// TaskStore implements store.TaskStore over PostgreSQL.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

// InsertTasks persists the given records with one multi-row INSERT. A single
// statement is atomic in PostgreSQL, which gives the all-or-nothing guarantee
// without an explicit transaction.
func (s *TaskStore) InsertTasks(ctx context.Context, records []*domain.TaskRecord) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO tasks (record_id, identifier, status, payload, created_at, updated_at)
		VALUES `)

	args := make([]any, 0, len(records)*6)
	now := time.Now().UTC()

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("%w: payload not serializable: %v", store.ErrInvalidEntity, err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6)

		args = append(args,
			rec.RecordID.String(),
			rec.Identifier,
			string(rec.Status),
			payload,
			now,
			now,
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert task records: %w", MapError(err))
	}

	return nil
}

// ExistingIdentifiers runs one batched existence check over the given
// content identifiers.
func (s *TaskStore) ExistingIdentifiers(ctx context.Context, identifiers []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(identifiers))
	if len(identifiers) == 0 {
		return existing, nil
	}

	query := `SELECT identifier FROM tasks WHERE identifier = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, identifiers)
	if err != nil {
		return nil, fmt.Errorf("failed to check identifiers: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier row: %w", MapError(err))
		}
		existing[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identifier rows: %w", MapError(err))
	}

	return existing, nil
}

// GetByIdentifier returns the record with the given content identifier.
// If more than one record carries the identifier (possible under the weak
// dedup guarantee), the oldest wins.
func (s *TaskStore) GetByIdentifier(ctx context.Context, identifier string) (*domain.TaskRecord, error) {
	query := `
		SELECT record_id, identifier, status, payload, created_at, updated_at
		FROM tasks
		WHERE identifier = $1
		ORDER BY created_at ASC
		LIMIT 1
	`

	rec, err := scanTaskRecord(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task by identifier: %w", MapError(err))
	}

	return rec, nil
}

// CountByStatus returns the number of records with the given status.
func (s *TaskStore) CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE status = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks by status: %w", MapError(err))
	}

	return count, nil
}

// ListByStatus returns up to limit records with the given status, oldest
// first so that backlog replenishment never starves old work.
func (s *TaskStore) ListByStatus(ctx context.Context, status domain.TaskStatus, limit int) ([]*domain.TaskRecord, error) {
	query := `
		SELECT record_id, identifier, status, payload, created_at, updated_at
		FROM tasks
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	return collectTaskRecords(rows)
}

// FilterExisting returns the subset of ids that refer to stored records.
func (s *TaskStore) FilterExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT record_id FROM tasks WHERE record_id = ANY($1::uuid[])`

	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to filter existing task ids: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var found []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan task id row: %w", MapError(err))
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("store returned malformed record id %q: %w", raw, err)
		}
		found = append(found, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task id rows: %w", MapError(err))
	}

	return found, nil
}

// UpdateStatus sets the status of every record in ids with one batched
// update and returns the number of rows changed.
func (s *TaskStore) UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.TaskStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE record_id = ANY($3::uuid[])
	`

	result, err := s.db.ExecContext(ctx, query, string(status), time.Now().UTC(), uuidStrings(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", MapError(err))
	}

	return int(affected), nil
}

// ListCompletedBefore returns records in a terminal status whose last
// update is older than the cutoff.
func (s *TaskStore) ListCompletedBefore(ctx context.Context, cutoff time.Time) ([]*domain.TaskRecord, error) {
	query := `
		SELECT record_id, identifier, status, payload, created_at, updated_at
		FROM tasks
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		string(domain.TaskStatusSuccess),
		string(domain.TaskStatusFailed),
		cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	return collectTaskRecords(rows)
}

// DeleteTasks removes the given records.
func (s *TaskStore) DeleteTasks(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM tasks WHERE record_id = ANY($1::uuid[])`

	if _, err := s.db.ExecContext(ctx, query, uuidStrings(ids)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrDeleteFailed, MapError(err))
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRecord(row rowScanner) (*domain.TaskRecord, error) {
	var (
		rawID      string
		identifier string
		status     string
		payload    []byte
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&rawID, &identifier, &status, &payload, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	recordID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("store returned malformed record id %q: %w", rawID, err)
	}

	var p domain.Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("store returned malformed payload for %s: %w", rawID, err)
	}

	return &domain.TaskRecord{
		RecordID:   recordID,
		Identifier: identifier,
		Status:     domain.TaskStatus(status),
		Payload:    p,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func collectTaskRecords(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*domain.TaskRecord, error) {
	var records []*domain.TaskRecord

	for rows.Next() {
		rec, err := scanTaskRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", MapError(err))
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", MapError(err))
	}

	return records, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
