package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betahub/internal/metrics"
	"betahub/internal/model"
	"betahub/internal/queue"
	"betahub/internal/repository"
)

type TesterRequestService struct {
	repo      repository.TesterRequestRepository
	publisher queue.Publisher // nil when Redis is not configured
	log       *logrus.Entry
	now       func() time.Time
}

func NewTesterRequestService(
	repo repository.TesterRequestRepository,
	publisher queue.Publisher,
	logger logrus.FieldLogger,
) *TesterRequestService {
	return &TesterRequestService{
		repo:      repo,
		publisher: publisher,
		log:       logger.WithField("component", "TesterRequestService"),
		now:       time.Now,
	}
}

// SetClock overrides the time source used for requestedAt.
func (s *TesterRequestService) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a new pending request for the (tester, app) pair.
//
// The lookup is the fast path for the common duplicate case; the unique
// index on (tester_email, app_id) settles concurrent creations.
func (s *TesterRequestService) Create(ctx context.Context, in model.CreateTesterRequest) (*model.TesterRequest, error) {
	in.Normalize()
	if in.TesterEmail == "" || in.AppID == "" {
		return nil, model.ErrMissingFields
	}

	existing, err := s.repo.FindByTesterAndApp(ctx, in.TesterEmail, in.AppID, nil)
	if err != nil {
		return nil, fmt.Errorf("check existing request: %w", err)
	}
	if existing != nil {
		return nil, model.ErrAlreadyRequested
	}

	req := &model.TesterRequest{
		ID:          uuid.New().String(),
		TesterEmail: in.TesterEmail,
		AppID:       in.AppID,
		Status:      model.StatusPending,
		DaysTested:  0,
		RequestedAt: s.now().UnixMilli(),
	}

	inserted, err := s.repo.Insert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("insert tester request: %w", err)
	}
	if !inserted {
		return nil, model.ErrAlreadyRequested
	}

	s.log.WithFields(logrus.Fields{"id": req.ID, "app": req.AppID, "tester": req.TesterEmail}).Info("Tester request created")
	metrics.RecordRequestCreated()
	publishActivity(ctx, s.publisher, s.log, queue.NewRequestCreatedEvent(req.ID, req.TesterEmail, req.AppID))

	return req, nil
}

// List returns the requests selected by the first non-empty filter key,
// checked in the order appId, testerEmail, developerEmail.
func (s *TesterRequestService) List(ctx context.Context, filter model.ListFilter) ([]model.TesterRequest, error) {
	var (
		requests []model.TesterRequest
		err      error
	)

	switch {
	case filter.AppID != "":
		requests, err = s.repo.ListByApp(ctx, filter.AppID)
	case filter.TesterEmail != "":
		requests, err = s.repo.ListByTester(ctx, filter.TesterEmail)
	case filter.DeveloperEmail != "":
		requests, err = s.repo.ListByDeveloper(ctx, filter.DeveloperEmail)
	default:
		return nil, model.ErrNoFilter
	}
	if err != nil {
		return nil, fmt.Errorf("list tester requests: %w", err)
	}

	if requests == nil {
		requests = []model.TesterRequest{}
	}
	return requests, nil
}

// Review approves or rejects a pending request.
func (s *TesterRequestService) Review(ctx context.Context, id string, status model.RequestStatus) (*model.TesterRequest, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, model.ErrInvalidStatus
	}
	// Ids are UUIDs; anything else cannot name a stored request.
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrRequestNotFound
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, model.ErrAlreadyReviewed
	}

	updated, err := s.repo.UpdateFields(ctx, req.DocID, model.RequestPatch{Status: &status}, nil)
	if err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}
	if !updated {
		return nil, model.ErrRequestNotFound
	}
	req.Status = status

	s.log.WithFields(logrus.Fields{"id": req.ID, "app": req.AppID, "status": status}).Info("Tester request reviewed")
	metrics.RecordRequestReviewed(string(status))
	publishActivity(ctx, s.publisher, s.log, queue.NewRequestReviewedEvent(req.ID, req.TesterEmail, req.AppID, string(status)))

	return req, nil
}
