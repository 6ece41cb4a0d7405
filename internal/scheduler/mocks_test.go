package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

type fakeTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.TaskRecord

	failCount  error
	failList   error
	failUpdate error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{records: map[uuid.UUID]*domain.TaskRecord{}}
}

func (f *fakeTaskStore) InsertTasks(_ context.Context, records []*domain.TaskRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range records {
		cp := *rec
		f.records[rec.RecordID] = &cp
	}
	return nil
}

func (f *fakeTaskStore) ExistingIdentifiers(_ context.Context, identifiers []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := map[string]bool{}
	for _, rec := range f.records {
		stored[rec.Identifier] = true
	}
	out := map[string]bool{}
	for _, id := range identifiers {
		if stored[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeTaskStore) GetByIdentifier(_ context.Context, identifier string) (*domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.Identifier == identifier {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeTaskStore) CountByStatus(_ context.Context, status domain.TaskStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCount != nil {
		return 0, f.failCount
	}
	n := 0
	for _, rec := range f.records {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskStore) ListByStatus(_ context.Context, status domain.TaskStatus, limit int) ([]*domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []*domain.TaskRecord
	for _, rec := range f.records {
		if rec.Status == status {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTaskStore) FilterExisting(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found []uuid.UUID
	for _, id := range ids {
		if _, ok := f.records[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (f *fakeTaskStore) UpdateStatus(_ context.Context, ids []uuid.UUID, status domain.TaskStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return 0, f.failUpdate
	}
	n := 0
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			rec.Status = status
			rec.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskStore) ListCompletedBefore(_ context.Context, cutoff time.Time) ([]*domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TaskRecord
	for _, rec := range f.records {
		terminal := rec.Status == domain.TaskStatusSuccess || rec.Status == domain.TaskStatusFailed
		if terminal && rec.UpdatedAt.Before(cutoff) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) DeleteTasks(_ context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeTaskStore) statusOf(id uuid.UUID) domain.TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[id]; ok {
		return rec.Status
	}
	return ""
}

func (f *fakeTaskStore) countStatus(status domain.TaskStatus) int {
	n, _ := f.CountByStatus(context.Background(), status)
	return n
}

type publishCall struct {
	batch    []domain.Payload
	priority int
}

type fakePublisher struct {
	mu       sync.Mutex
	calls    []publishCall
	failCall map[int]error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failCall: map[int]error{}}
}

func (p *fakePublisher) Publish(_ context.Context, batch []domain.Payload, priority int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.calls)
	p.calls = append(p.calls, publishCall{batch: batch, priority: priority})
	if err, ok := p.failCall[idx]; ok {
		return err
	}
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fakeResultStore struct {
	mu      sync.Mutex
	rows    []*domain.ExecutionResult
	deleted []string

	failList   error
	failDelete error
}

func (f *fakeResultStore) ListAll(_ context.Context) ([]*domain.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	out := make([]*domain.ExecutionResult, len(f.rows))
	for i, row := range f.rows {
		cp := *row
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeResultStore) Delete(_ context.Context, resultIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, resultIDs...)
	remove := map[string]bool{}
	for _, id := range resultIDs {
		remove[id] = true
	}
	var kept []*domain.ExecutionResult
	for _, row := range f.rows {
		if !remove[row.ResultID] {
			kept = append(kept, row)
		}
	}
	f.rows = kept
	return nil
}
