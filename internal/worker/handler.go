package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"betahub/internal/cache"
	"betahub/internal/model"
	"betahub/internal/queue"
)

// Handler applies activity events to the leaderboard cache.
//
// Events only touch leaderboards that already exist in Redis. A missing
// leaderboard is rebuilt from the database on the next read, which already
// includes the change the event describes.
type Handler struct {
	leaderboard cache.LeaderboardCache
	log         *logrus.Entry
}

// NewHandler creates a new event handler.
func NewHandler(leaderboard cache.LeaderboardCache, logger logrus.FieldLogger) *Handler {
	return &Handler{
		leaderboard: leaderboard,
		log:         logger.WithField("component", "Worker"),
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.ActivityEvent) error {
	startTime := time.Now()
	log := h.log.WithFields(logrus.Fields{"type": event.Type, "app": event.AppID, "tester": event.TesterEmail})

	var err error
	switch event.Type {
	case queue.EventRequestCreated:
		log.Info("RequestCreated")
	case queue.EventRequestReviewed:
		err = h.handleRequestReviewed(ctx, event)
	case queue.EventCheckedIn:
		err = h.handleCheckedIn(ctx, event)
	default:
		log.Warn("Unknown event type")
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.WithError(err).WithField("duration", time.Since(startTime)).Warn("HandleEvent failed")
		return err
	}

	log.WithField("duration", time.Since(startTime)).Debug("HandleEvent OK")
	return nil
}

func (h *Handler) leaderboardCached(ctx context.Context, appID string) (bool, error) {
	exists, err := h.leaderboard.Exists(ctx, appID)
	if err != nil {
		return false, fmt.Errorf("check leaderboard: %w", err)
	}
	return exists, nil
}

// handleRequestReviewed ranks newly approved testers and drops rejected ones.
func (h *Handler) handleRequestReviewed(ctx context.Context, event queue.ActivityEvent) error {
	exists, err := h.leaderboardCached(ctx, event.AppID)
	if err != nil || !exists {
		return err
	}

	switch model.RequestStatus(event.Status) {
	case model.StatusApproved:
		return h.leaderboard.AddIfAbsent(ctx, event.AppID, event.TesterEmail)
	case model.StatusRejected:
		return h.leaderboard.Remove(ctx, event.AppID, event.TesterEmail)
	default:
		return fmt.Errorf("unexpected review status: %q", event.Status)
	}
}

// handleCheckedIn sets the tester's score to the new day count.
func (h *Handler) handleCheckedIn(ctx context.Context, event queue.ActivityEvent) error {
	exists, err := h.leaderboardCached(ctx, event.AppID)
	if err != nil || !exists {
		return err
	}
	return h.leaderboard.SetScore(ctx, event.AppID, event.TesterEmail, event.DaysTested)
}
