package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRecord(t *testing.T) {
	payload := Payload{"url": "https://example.com", "depth": 2}

	rec, err := NewTaskRecord(payload, TaskStatusPending)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.RecordID)
	assert.Equal(t, TaskStatusPending, rec.Status)
	assert.NotEmpty(t, rec.Identifier)
	assert.False(t, rec.CreatedAt.IsZero())

	wantID, err := payload.Identifier()
	require.NoError(t, err)
	assert.Equal(t, wantID, rec.Identifier)
}

func TestNewTaskRecord_EmptyPayload(t *testing.T) {
	_, err := NewTaskRecord(Payload{}, TaskStatusPending)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestTaskRecordValidate_InvalidStatus(t *testing.T) {
	rec, err := NewTaskRecord(Payload{"k": "v"}, TaskStatusPending)
	require.NoError(t, err)

	rec.Status = TaskStatus("RUNNING")
	assert.ErrorIs(t, rec.Validate(), ErrInvalidStatus)
}

func TestParseTaskStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "PROCESSING", "SUCCESS", "FAILED"} {
		status, err := ParseTaskStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, TaskStatus(valid), status)
	}

	_, err := ParseTaskStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus, "status values are case-sensitive")

	_, err = ParseTaskStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
