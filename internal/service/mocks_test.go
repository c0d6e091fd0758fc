package service

import (
	"context"
	"sort"
	"sync"

	"betahub/internal/model"
	"betahub/internal/queue"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================

type mockTesterRequestRepository struct {
	findFn            func(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error)
	getByIDFn         func(ctx context.Context, id string) (*model.TesterRequest, error)
	listByAppFn       func(ctx context.Context, appID string) ([]model.TesterRequest, error)
	listByTesterFn    func(ctx context.Context, testerEmail string) ([]model.TesterRequest, error)
	listByDeveloperFn func(ctx context.Context, developerEmail string) ([]model.TesterRequest, error)
	insertFn          func(ctx context.Context, req *model.TesterRequest) (bool, error)
	updateFieldsFn    func(ctx context.Context, docID int64, patch model.RequestPatch, guard *model.RequestGuard) (bool, error)

	insertCalls []*model.TesterRequest
	updateCalls []updateCall
}

type updateCall struct {
	DocID int64
	Patch model.RequestPatch
	Guard *model.RequestGuard
}

func (m *mockTesterRequestRepository) FindByTesterAndApp(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error) {
	if m.findFn != nil {
		return m.findFn(ctx, testerEmail, appID, status)
	}
	return nil, nil
}

func (m *mockTesterRequestRepository) GetByID(ctx context.Context, id string) (*model.TesterRequest, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrRequestNotFound
}

func (m *mockTesterRequestRepository) ListByApp(ctx context.Context, appID string) ([]model.TesterRequest, error) {
	if m.listByAppFn != nil {
		return m.listByAppFn(ctx, appID)
	}
	return []model.TesterRequest{}, nil
}

func (m *mockTesterRequestRepository) ListByTester(ctx context.Context, testerEmail string) ([]model.TesterRequest, error) {
	if m.listByTesterFn != nil {
		return m.listByTesterFn(ctx, testerEmail)
	}
	return []model.TesterRequest{}, nil
}

func (m *mockTesterRequestRepository) ListByDeveloper(ctx context.Context, developerEmail string) ([]model.TesterRequest, error) {
	if m.listByDeveloperFn != nil {
		return m.listByDeveloperFn(ctx, developerEmail)
	}
	return []model.TesterRequest{}, nil
}

func (m *mockTesterRequestRepository) Insert(ctx context.Context, req *model.TesterRequest) (bool, error) {
	m.insertCalls = append(m.insertCalls, req)
	if m.insertFn != nil {
		return m.insertFn(ctx, req)
	}
	return true, nil
}

func (m *mockTesterRequestRepository) UpdateFields(ctx context.Context, docID int64, patch model.RequestPatch, guard *model.RequestGuard) (bool, error) {
	m.updateCalls = append(m.updateCalls, updateCall{DocID: docID, Patch: patch, Guard: guard})
	if m.updateFieldsFn != nil {
		return m.updateFieldsFn(ctx, docID, patch, guard)
	}
	return true, nil
}

// =============================================================================
// IN-MEMORY REPOSITORY
// =============================================================================

// memoryRepository mirrors the Postgres semantics: unique (tester, app) pairs,
// lowest doc id wins on lookup, guarded updates compare last_test_date.
type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []model.TesterRequest
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1}
}

func (m *memoryRepository) FindByTesterAndApp(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TesterEmail == testerEmail && r.AppID == appID && (status == nil || r.Status == *status) {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) GetByID(ctx context.Context, id string) (*model.TesterRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	return nil, model.ErrRequestNotFound
}

func (m *memoryRepository) filter(keep func(model.TesterRequest) bool) []model.TesterRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.TesterRequest{}
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestedAt != out[j].RequestedAt {
			return out[i].RequestedAt > out[j].RequestedAt
		}
		return out[i].DocID > out[j].DocID
	})
	return out
}

func (m *memoryRepository) ListByApp(ctx context.Context, appID string) ([]model.TesterRequest, error) {
	return m.filter(func(r model.TesterRequest) bool { return r.AppID == appID }), nil
}

func (m *memoryRepository) ListByTester(ctx context.Context, testerEmail string) ([]model.TesterRequest, error) {
	return m.filter(func(r model.TesterRequest) bool { return r.TesterEmail == testerEmail }), nil
}

func (m *memoryRepository) ListByDeveloper(ctx context.Context, developerEmail string) ([]model.TesterRequest, error) {
	return []model.TesterRequest{}, nil
}

func (m *memoryRepository) Insert(ctx context.Context, req *model.TesterRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TesterEmail == req.TesterEmail && r.AppID == req.AppID {
			return false, nil
		}
	}
	req.DocID = m.nextID
	m.nextID++
	m.rows = append(m.rows, *req)
	return true, nil
}

func (m *memoryRepository) UpdateFields(ctx context.Context, docID int64, patch model.RequestPatch, guard *model.RequestGuard) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		r := &m.rows[i]
		if r.DocID != docID {
			continue
		}
		if guard != nil && !sameDate(r.LastTestDate, guard.LastTestDate) {
			return false, nil
		}
		if patch.Status != nil {
			r.Status = *patch.Status
		}
		if patch.DaysTested != nil {
			r.DaysTested = *patch.DaysTested
		}
		if patch.LastTestDate != nil {
			r.LastTestDate = patch.LastTestDate.Ptr()
		}
		return true, nil
	}
	return false, nil
}

func (m *memoryRepository) setStatus(testerEmail, appID string, status model.RequestStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].TesterEmail == testerEmail && m.rows[i].AppID == appID {
			m.rows[i].Status = status
		}
	}
}

func sameDate(a, b *model.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// =============================================================================
// MOCK PUBLISHER
// =============================================================================

type mockPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, stream string, event queue.ActivityEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *mockPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
