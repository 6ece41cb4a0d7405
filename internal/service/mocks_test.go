package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/air-con/task-manager/internal/domain"
	"github.com/air-con/task-manager/internal/store"
	"github.com/google/uuid"
)

// fakeTaskStore is an in-memory store.TaskStore with switchable failures.
type fakeTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.TaskRecord

	failInsert error
	failExists error
	failUpdate error
	failFilter error

	insertCalls int
	existsCalls int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{records: map[uuid.UUID]*domain.TaskRecord{}}
}

func (f *fakeTaskStore) InsertTasks(_ context.Context, records []*domain.TaskRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInsert != nil {
		return f.failInsert
	}
	for _, rec := range records {
		cp := *rec
		f.records[rec.RecordID] = &cp
	}
	return nil
}

func (f *fakeTaskStore) ExistingIdentifiers(_ context.Context, identifiers []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.failExists != nil {
		return nil, f.failExists
	}
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
	var oldest *domain.TaskRecord
	for _, rec := range f.records {
		if rec.Identifier != identifier {
			continue
		}
		if oldest == nil || rec.CreatedAt.Before(oldest.CreatedAt) {
			oldest = rec
		}
	}
	if oldest == nil {
		return nil, store.ErrTaskNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (f *fakeTaskStore) CountByStatus(_ context.Context, status domain.TaskStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if f.failFilter != nil {
		return nil, f.failFilter
	}
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

// publishCall records one Publish invocation on fakePublisher.
type publishCall struct {
	batch    []domain.Payload
	priority int
}

// fakePublisher records publishes and can be told to fail specific calls.
type fakePublisher struct {
	mu       sync.Mutex
	calls    []publishCall
	failCall map[int]error // 0-based call index -> error
	failAll  error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failCall: map[int]error{}}
}

func (p *fakePublisher) Publish(_ context.Context, batch []domain.Payload, priority int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.calls)
	p.calls = append(p.calls, publishCall{batch: batch, priority: priority})
	if p.failAll != nil {
		return p.failAll
	}
	if err, ok := p.failCall[idx]; ok {
		return err
	}
	return nil
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
