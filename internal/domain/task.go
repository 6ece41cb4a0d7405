package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task record.
type TaskStatus string

// Possible task status values. A record normally moves forward along
// PENDING -> PROCESSING -> SUCCESS/FAILED; reconciliation may move
// PROCESSING back to PENDING when the execution backend reports a
// non-terminal failure.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusSuccess    TaskStatus = "SUCCESS"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// ParseTaskStatus converts a string into a TaskStatus, returning
// ErrInvalidStatus for unrecognized values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !status.IsValid() {
		return "", NewValidationError("status", "must be one of PENDING, PROCESSING, SUCCESS, FAILED", ErrInvalidStatus)
	}
	return status, nil
}

// IsValid reports whether the status is one of the recognized values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusSuccess, TaskStatusFailed:
		return true
	}
	return false
}

// TaskRecord is the durable representation of a unit of work destined for
// the external queue. The record ID is assigned by the store on creation;
// the identifier is a content hash over the payload used solely for
// duplicate detection.
type TaskRecord struct {
	RecordID   uuid.UUID  `json:"record_id"`
	Identifier string     `json:"identifier"`
	Status     TaskStatus `json:"status"`
	Payload    Payload    `json:"payload"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTaskRecord creates a TaskRecord for the given payload with a fresh
// record ID, computing the content identifier. Returns an error if the
// payload is empty or cannot be canonicalized.
func NewTaskRecord(payload Payload, status TaskStatus) (*TaskRecord, error) {
	identifier, err := payload.Identifier()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &TaskRecord{
		RecordID:   uuid.New(),
		Identifier: identifier,
		Status:     status,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks that the record has valid data.
func (t *TaskRecord) Validate() error {
	if t.RecordID == uuid.Nil {
		return NewValidationError("record_id", "cannot be empty", ErrInvalidID)
	}

	if t.Identifier == "" {
		return NewValidationError("identifier", "cannot be empty", ErrValidation)
	}

	if !t.Status.IsValid() {
		return NewValidationError("status", "is not a recognized value", ErrInvalidStatus)
	}

	if len(t.Payload) == 0 {
		return NewValidationError("payload", "cannot be empty", ErrEmptyPayload)
	}

	return nil
}
