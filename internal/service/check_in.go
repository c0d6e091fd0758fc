package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"betahub/internal/metrics"
	"betahub/internal/model"
	"betahub/internal/queue"
	"betahub/internal/repository"
)

type CheckInService struct {
	repo      repository.TesterRequestRepository
	publisher queue.Publisher // nil when Redis is not configured
	log       *logrus.Entry
	now       func() time.Time
}

func NewCheckInService(
	repo repository.TesterRequestRepository,
	publisher queue.Publisher,
	logger logrus.FieldLogger,
) *CheckInService {
	return &CheckInService{
		repo:      repo,
		publisher: publisher,
		log:       logger.WithField("component", "CheckInService"),
		now:       time.Now,
	}
}

// SetClock overrides the time source that decides the current UTC day.
func (s *CheckInService) SetClock(now func() time.Time) {
	s.now = now
}

// CheckIn records today's test session for an approved tester.
//
// The update is conditional on the last_test_date read here, so of two
// concurrent check-ins on the same day only one increments daysTested.
func (s *CheckInService) CheckIn(ctx context.Context, in model.CheckInRequest) (*model.CheckInResult, error) {
	in.Normalize()
	if in.TesterEmail == "" || in.AppID == "" {
		return nil, model.ErrMissingFields
	}

	approved := model.StatusApproved
	req, err := s.repo.FindByTesterAndApp(ctx, in.TesterEmail, in.AppID, &approved)
	if err != nil {
		return nil, fmt.Errorf("find approved request: %w", err)
	}
	if req == nil {
		return nil, model.ErrNoApprovedRequest
	}

	today := model.DateOf(s.now())
	if req.CheckedInOn(today) {
		return nil, model.ErrAlreadyCheckedIn
	}

	days := req.DaysTested + 1
	updated, err := s.repo.UpdateFields(ctx, req.DocID,
		model.RequestPatch{DaysTested: &days, LastTestDate: &today},
		&model.RequestGuard{LastTestDate: req.LastTestDate},
	)
	if err != nil {
		return nil, fmt.Errorf("record check-in: %w", err)
	}
	if !updated {
		// A concurrent check-in moved last_test_date first.
		return nil, model.ErrAlreadyCheckedIn
	}

	s.log.WithFields(logrus.Fields{"id": req.ID, "app": req.AppID, "days": days, "date": today.String()}).Info("Check-in recorded")
	metrics.RecordCheckIn()
	publishActivity(ctx, s.publisher, s.log, queue.NewCheckedInEvent(req.ID, req.TesterEmail, req.AppID, days, today.String()))

	return &model.CheckInResult{
		Message:    fmt.Sprintf("Check-in successful! You have tested this app for %d day(s).", days),
		DaysTested: days,
	}, nil
}
