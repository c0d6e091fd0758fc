package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"betahub/internal/logging"
	"betahub/internal/model"
	"betahub/internal/queue"
)

var fixedNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func newTesterRequestService(repo *mockTesterRequestRepository, pub queue.Publisher) *TesterRequestService {
	svc := NewTesterRequestService(repo, pub, logging.Discard())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestTesterRequestService_Create_Success(t *testing.T) {
	repo := &mockTesterRequestRepository{
		insertFn: func(ctx context.Context, req *model.TesterRequest) (bool, error) {
			req.DocID = 1
			return true, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTesterRequestService(repo, pub)

	req, err := svc.Create(context.Background(), model.CreateTesterRequest{TesterEmail: " t@x.com ", AppID: "app1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if _, err := uuid.Parse(req.ID); err != nil {
		t.Errorf("id %q is not a UUID: %v", req.ID, err)
	}
	if req.TesterEmail != "t@x.com" {
		t.Errorf("testerEmail = %q, want trimmed %q", req.TesterEmail, "t@x.com")
	}
	if req.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", req.Status)
	}
	if req.DaysTested != 0 || req.LastTestDate != nil {
		t.Errorf("new request should have no test history, got days=%d last=%v", req.DaysTested, req.LastTestDate)
	}
	if req.RequestedAt != fixedNow.UnixMilli() {
		t.Errorf("requestedAt = %d, want %d", req.RequestedAt, fixedNow.UnixMilli())
	}
	if len(repo.insertCalls) != 1 {
		t.Errorf("insert calls = %d, want 1", len(repo.insertCalls))
	}
	if got := pub.types(); len(got) != 1 || got[0] != queue.EventRequestCreated {
		t.Errorf("published events = %v, want [%s]", got, queue.EventRequestCreated)
	}
}

func TestTesterRequestService_Create_Errors(t *testing.T) {
	dbErr := errors.New("connection refused")

	tests := []struct {
		name    string
		input   model.CreateTesterRequest
		repo    *mockTesterRequestRepository
		wantErr error
		inserts int
	}{
		{
			name:    "missing tester email",
			input:   model.CreateTesterRequest{AppID: "app1"},
			repo:    &mockTesterRequestRepository{},
			wantErr: model.ErrMissingFields,
		},
		{
			name:    "whitespace app id",
			input:   model.CreateTesterRequest{TesterEmail: "t@x.com", AppID: "   "},
			repo:    &mockTesterRequestRepository{},
			wantErr: model.ErrMissingFields,
		},
		{
			name:  "existing request of any status",
			input: model.CreateTesterRequest{TesterEmail: "t@x.com", AppID: "app1"},
			repo: &mockTesterRequestRepository{
				findFn: func(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error) {
					if status != nil {
						t.Errorf("duplicate check must not filter by status, got %q", *status)
					}
					return &model.TesterRequest{ID: "old", Status: model.StatusRejected}, nil
				},
			},
			wantErr: model.ErrAlreadyRequested,
		},
		{
			name:  "unique index rejects concurrent insert",
			input: model.CreateTesterRequest{TesterEmail: "t@x.com", AppID: "app1"},
			repo: &mockTesterRequestRepository{
				insertFn: func(ctx context.Context, req *model.TesterRequest) (bool, error) {
					return false, nil
				},
			},
			wantErr: model.ErrAlreadyRequested,
			inserts: 1,
		},
		{
			name:  "lookup failure",
			input: model.CreateTesterRequest{TesterEmail: "t@x.com", AppID: "app1"},
			repo: &mockTesterRequestRepository{
				findFn: func(ctx context.Context, testerEmail, appID string, status *model.RequestStatus) (*model.TesterRequest, error) {
					return nil, dbErr
				},
			},
			wantErr: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := newTesterRequestService(tt.repo, pub)

			_, err := svc.Create(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(tt.repo.insertCalls) != tt.inserts {
				t.Errorf("insert calls = %d, want %d", len(tt.repo.insertCalls), tt.inserts)
			}
			if len(pub.types()) != 0 {
				t.Error("no event should be published on failure")
			}
		})
	}
}

func TestTesterRequestService_Create_PublishFailureIgnored(t *testing.T) {
	svc := newTesterRequestService(&mockTesterRequestRepository{}, &mockPublisher{err: errors.New("redis down")})

	if _, err := svc.Create(context.Background(), model.CreateTesterRequest{TesterEmail: "t@x.com", AppID: "app1"}); err != nil {
		t.Fatalf("publish failure must not fail creation, got: %v", err)
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestTesterRequestService_List_BranchPriority(t *testing.T) {
	var called string
	repo := &mockTesterRequestRepository{
		listByAppFn: func(ctx context.Context, appID string) ([]model.TesterRequest, error) {
			called = "app:" + appID
			return []model.TesterRequest{{ID: "1"}}, nil
		},
		listByTesterFn: func(ctx context.Context, testerEmail string) ([]model.TesterRequest, error) {
			called = "tester:" + testerEmail
			return nil, nil
		},
		listByDeveloperFn: func(ctx context.Context, developerEmail string) ([]model.TesterRequest, error) {
			called = "developer:" + developerEmail
			return nil, nil
		},
	}
	svc := newTesterRequestService(repo, nil)

	tests := []struct {
		name   string
		filter model.ListFilter
		want   string
	}{
		{"app wins over everything", model.ListFilter{AppID: "a", TesterEmail: "t", DeveloperEmail: "d"}, "app:a"},
		{"tester wins over developer", model.ListFilter{TesterEmail: "t", DeveloperEmail: "d"}, "tester:t"},
		{"developer alone", model.ListFilter{DeveloperEmail: "d"}, "developer:d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = ""
			requests, err := svc.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if called != tt.want {
				t.Errorf("branch = %q, want %q", called, tt.want)
			}
			if requests == nil {
				t.Error("result must never be nil")
			}
		})
	}
}

func TestTesterRequestService_List_NoFilter(t *testing.T) {
	svc := newTesterRequestService(&mockTesterRequestRepository{}, nil)

	_, err := svc.List(context.Background(), model.ListFilter{})
	if !errors.Is(err, model.ErrNoFilter) {
		t.Fatalf("error = %v, want ErrNoFilter", err)
	}
}

// =============================================================================
// REVIEW TESTS
// =============================================================================

func TestTesterRequestService_Review(t *testing.T) {
	id := uuid.New().String()
	pending := func(ctx context.Context, got string) (*model.TesterRequest, error) {
		return &model.TesterRequest{DocID: 5, ID: got, TesterEmail: "t@x.com", AppID: "app1", Status: model.StatusPending}, nil
	}

	tests := []struct {
		name    string
		id      string
		status  model.RequestStatus
		getByID func(ctx context.Context, id string) (*model.TesterRequest, error)
		wantErr error
	}{
		{name: "approve", id: id, status: model.StatusApproved, getByID: pending},
		{name: "reject", id: id, status: model.StatusRejected, getByID: pending},
		{name: "pending is not a review outcome", id: id, status: model.StatusPending, getByID: pending, wantErr: model.ErrInvalidStatus},
		{name: "unknown status", id: id, status: "archived", getByID: pending, wantErr: model.ErrInvalidStatus},
		{name: "non-uuid id", id: "abc", status: model.StatusApproved, getByID: pending, wantErr: model.ErrRequestNotFound},
		{name: "missing request", id: id, status: model.StatusApproved, wantErr: model.ErrRequestNotFound},
		{
			name:   "already reviewed",
			id:     id,
			status: model.StatusRejected,
			getByID: func(ctx context.Context, got string) (*model.TesterRequest, error) {
				return &model.TesterRequest{DocID: 5, ID: got, Status: model.StatusApproved}, nil
			},
			wantErr: model.ErrAlreadyReviewed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockTesterRequestRepository{getByIDFn: tt.getByID}
			pub := &mockPublisher{}
			svc := newTesterRequestService(repo, pub)

			req, err := svc.Review(context.Background(), tt.id, tt.status)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if len(repo.updateCalls) != 0 {
					t.Error("store must not be written on failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Status != tt.status {
				t.Errorf("status = %q, want %q", req.Status, tt.status)
			}
			if len(repo.updateCalls) != 1 || repo.updateCalls[0].DocID != 5 || repo.updateCalls[0].Guard != nil {
				t.Errorf("unexpected update calls: %+v", repo.updateCalls)
			}
			if got := pub.types(); len(got) != 1 || got[0] != queue.EventRequestReviewed {
				t.Errorf("published events = %v", got)
			}
		})
	}
}
