package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"betahub/internal/queue"
)

// publishActivity sends event to the activity stream. The write it describes
// has already been committed, so failures are logged and swallowed.
func publishActivity(ctx context.Context, publisher queue.Publisher, log *logrus.Entry, event queue.ActivityEvent) {
	if publisher == nil {
		return
	}

	msgID, err := publisher.Publish(ctx, queue.StreamActivity, event)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"type":   event.Type,
			"app":    event.AppID,
			"tester": event.TesterEmail,
		}).Warn("Failed to publish activity event")
		return
	}

	log.WithFields(logrus.Fields{"type": event.Type, "msg_id": msgID}).Debug("Published activity event")
}
