package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/google/uuid"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by store implementations.
// Accepting this interface lets a store run inside or outside a transaction
// without knowing which.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TaskStore is the row-store gateway for durable task records.
// Implementations must be safe for concurrent use: the two periodic loops
// and the request-triggered operations all call it without coordination.
type TaskStore interface {
	// InsertTasks persists the given records in a single batched write.
	// The write is all-or-nothing: on error, none of the records are
	// persisted.
	InsertTasks(ctx context.Context, records []*domain.TaskRecord) error

	// ExistingIdentifiers reports which of the given content identifiers
	// already belong to a stored record, via one batched existence check.
	ExistingIdentifiers(ctx context.Context, identifiers []string) (map[string]bool, error)

	// GetByIdentifier returns the record with the given content identifier,
	// or ErrTaskNotFound.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.TaskRecord, error)

	// CountByStatus returns the number of records with the given status.
	CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error)

	// ListByStatus returns up to limit records with the given status,
	// oldest first.
	ListByStatus(ctx context.Context, status domain.TaskStatus, limit int) ([]*domain.TaskRecord, error)

	// FilterExisting returns the subset of ids that refer to stored records.
	FilterExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// UpdateStatus sets the status of every record in ids with a single
	// batched update and returns the number of rows changed. IDs that match
	// no record are silently skipped; use FilterExisting to detect them.
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.TaskStatus) (int, error)

	// ListCompletedBefore returns records in a terminal status (SUCCESS or
	// FAILED) whose last update is older than the cutoff.
	ListCompletedBefore(ctx context.Context, cutoff time.Time) ([]*domain.TaskRecord, error)

	// DeleteTasks removes the given records.
	DeleteTasks(ctx context.Context, ids []uuid.UUID) error
}

// ResultStore is the read-and-drain gateway over the execution backend's
// result table. The engine never writes result rows; it only lists and
// deletes them.
type ResultStore interface {
	// ListAll returns every result row currently present.
	ListAll(ctx context.Context) ([]*domain.ExecutionResult, error)

	// Delete removes the given result rows by their store-assigned IDs.
	Delete(ctx context.Context, resultIDs []string) error
}
