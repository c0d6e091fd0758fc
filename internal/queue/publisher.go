package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event ActivityEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	log    *logrus.Entry
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, logger logrus.FieldLogger) Publisher {
	return &RedisPublisher{
		client: client,
		log:    logger.WithField("component", "Publisher"),
	}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ActivityEvent) (string, error) {
	startTime := time.Now()
	fields := logrus.Fields{"stream": stream, "type": event.Type}

	values, err := event.ToMap()
	if err != nil {
		p.log.WithError(err).WithFields(fields).Warn("Publish failed")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.WithError(err).WithFields(fields).Warn("Publish failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.WithFields(fields).WithFields(logrus.Fields{
		"msg_id":   messageID,
		"app":      event.AppID,
		"tester":   event.TesterEmail,
		"duration": time.Since(startTime),
	}).Debug("Publish OK")

	return messageID, nil
}
