package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/air-con/task-manager/internal/api/shared"
	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/scheduler"
	"github.com/air-con/task-manager/internal/service"
	"github.com/google/uuid"
)

// Ingestor admits a batch of payloads with duplicate suppression.
type Ingestor interface {
	Ingest(ctx context.Context, payloads []domain.Payload) (*service.IngestResult, error)
}

// PriorityInjector publishes payloads immediately at elevated priority.
type PriorityInjector interface {
	Inject(ctx context.Context, payloads []domain.Payload, priority int) (*service.InjectResult, error)
}

// StatusUpdater applies bulk status transitions.
type StatusUpdater interface {
	UpdateStatuses(ctx context.Context, updates map[domain.TaskStatus][]uuid.UUID) (*service.StatusUpdateResult, error)
}

// TaskCounter reports how many records sit in a given status.
type TaskCounter interface {
	CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error)
}

// QueueProber reports broker queue depths for the status view.
type QueueProber interface {
	Depths() map[string]int
}

// LoopStates exposes the periodic loops' most recent run outcomes.
type LoopStates interface {
	Snapshot() map[string]scheduler.JobState
}

// NotificationState reports whether outbound notifications are enabled.
type NotificationState interface {
	Enabled() bool
}

// IngestResponse is the body returned by the ingestion endpoint.
type IngestResponse struct {
	AcceptedCount  int      `json:"accepted_count"`
	DuplicateCount int      `json:"duplicate_count"`
	AcceptedIDs    []string `json:"accepted_ids"`
}

// InjectResponse is the body returned by the priority-queue endpoint.
type InjectResponse struct {
	PublishedIDs []string                  `json:"published_ids"`
	FailedItems  []service.FailedInjection `json:"failed_items"`
}

// UpdateStatusResponse is the body returned by the update-status endpoint.
type UpdateStatusResponse struct {
	UpdatedCount int      `json:"updated_count"`
	NotFoundIDs  []string `json:"not_found_ids"`
}

// StatusResponse is the read-only status view.
type StatusResponse struct {
	PendingCount         int                           `json:"pending_count"`
	ProcessingCount      int                           `json:"processing_count"`
	QueueDepths          map[string]int                `json:"queue_depths"`
	Jobs                 map[string]scheduler.JobState `json:"jobs"`
	NotificationsEnabled bool                          `json:"notifications_enabled"`
}

// TaskHandler handles the task lifecycle HTTP endpoints.
type TaskHandler struct {
	ingestor Ingestor
	injector PriorityInjector
	statuses StatusUpdater
	counts   TaskCounter
	probe    QueueProber
	loops    LoopStates
	notify   NotificationState

	// injectPriority is used when the priority-queue endpoint is called
	// without an explicit priority.
	injectPriority int
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	ingestor Ingestor,
	injector PriorityInjector,
	statuses StatusUpdater,
	counts TaskCounter,
	probe QueueProber,
	loops LoopStates,
	notify NotificationState,
	injectPriority int,
) *TaskHandler {
	return &TaskHandler{
		ingestor:       ingestor,
		injector:       injector,
		statuses:       statuses,
		counts:         counts,
		probe:          probe,
		loops:          loops,
		notify:         notify,
		injectPriority: injectPriority,
	}
}

// Ingest handles POST /api/tasks/ingest requests. The body is a bare JSON
// array of payload objects.
func (h *TaskHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var payloads []domain.Payload
	if err := shared.DecodeJSON(r, &payloads); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body must be a JSON array of payload objects")
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), payloads)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, IngestResponse{
		AcceptedCount:  result.Accepted,
		DuplicateCount: result.Duplicate,
		AcceptedIDs:    uuidStrings(result.AcceptedIDs),
	})
}

// InjectPriority handles POST /api/tasks/priority-queue requests. The body
// is either a single payload object or an array of them; an optional
// ?priority= query parameter overrides the configured injection priority.
func (h *TaskHandler) InjectPriority(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := shared.DecodeJSON(r, &raw); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	payloads, err := decodePayloads(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body must be a payload object or an array of them")
		return
	}

	priority := h.injectPriority
	if q := r.URL.Query().Get("priority"); q != "" {
		priority, err = strconv.Atoi(q)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Priority must be an integer")
			return
		}
	}

	result, err := h.injector.Inject(r.Context(), payloads, priority)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := InjectResponse{
		PublishedIDs: uuidStrings(result.PublishedIDs),
		FailedItems:  result.Failed,
	}
	if resp.FailedItems == nil {
		resp.FailedItems = []service.FailedInjection{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// UpdateStatus handles POST /api/tasks/update-status requests. The body
// maps a target status to the record IDs it should be applied to, e.g.
// {"SUCCESS": ["..."], "FAILED": ["..."]}.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body map[string][]string
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body must map statuses to record ID lists")
		return
	}

	updates := make(map[domain.TaskStatus][]uuid.UUID, len(body))
	notFound := []string{}
	for rawStatus, rawIDs := range body {
		status, err := domain.ParseTaskStatus(rawStatus)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}
		for _, rawID := range rawIDs {
			id, err := uuid.Parse(rawID)
			if err != nil {
				// A malformed ID can match no record; report it with the
				// genuinely missing ones instead of failing the batch.
				notFound = append(notFound, rawID)
				continue
			}
			updates[status] = append(updates[status], id)
		}
	}

	result, err := h.statuses.UpdateStatuses(r.Context(), updates)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UpdateStatusResponse{
		UpdatedCount: result.Updated,
		NotFoundIDs:  append(notFound, result.NotFound...),
	})
}

// Status handles GET /api/tasks/status requests.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	pending, err := h.counts.CountByStatus(r.Context(), domain.TaskStatusPending)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read task counts", err)
		return
	}
	processing, err := h.counts.CountByStatus(r.Context(), domain.TaskStatusProcessing)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read task counts", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		PendingCount:         pending,
		ProcessingCount:      processing,
		QueueDepths:          h.probe.Depths(),
		Jobs:                 h.loops.Snapshot(),
		NotificationsEnabled: h.notify.Enabled(),
	})
}

// decodePayloads accepts either a JSON array of payload objects or a
// single payload object.
func decodePayloads(raw json.RawMessage) ([]domain.Payload, error) {
	var payloads []domain.Payload
	if err := json.Unmarshal(raw, &payloads); err == nil {
		return payloads, nil
	}

	var single domain.Payload
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []domain.Payload{single}, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
