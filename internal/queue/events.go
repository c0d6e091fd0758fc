package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the tester activity stream
const (
	EventRequestCreated  = "request_created"
	EventRequestReviewed = "request_reviewed"
	EventCheckedIn       = "checked_in"
)

// Stream names
const (
	StreamActivity = "stream:tester-activity"
)

// Consumer group name for activity workers
const (
	ConsumerGroupActivity = "activity_workers"
)

// ActivityEvent is published after every successful write to a tester request.
type ActivityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix seconds

	RequestID   string `json:"request_id"`
	TesterEmail string `json:"tester_email"`
	AppID       string `json:"app_id"`

	// request_reviewed
	Status string `json:"status,omitempty"`

	// checked_in
	DaysTested   int    `json:"days_tested,omitempty"`
	LastTestDate string `json:"last_test_date,omitempty"`
}

func newEvent(eventType, requestID, testerEmail, appID string) ActivityEvent {
	return ActivityEvent{
		Type:        eventType,
		Timestamp:   time.Now().Unix(),
		RequestID:   requestID,
		TesterEmail: testerEmail,
		AppID:       appID,
	}
}

// NewRequestCreatedEvent is emitted when a tester asks to test an app.
func NewRequestCreatedEvent(requestID, testerEmail, appID string) ActivityEvent {
	return newEvent(EventRequestCreated, requestID, testerEmail, appID)
}

// NewRequestReviewedEvent is emitted when an admin approves or rejects a request.
// Worker adds approved testers to the app leaderboard and drops rejected ones.
func NewRequestReviewedEvent(requestID, testerEmail, appID, status string) ActivityEvent {
	e := newEvent(EventRequestReviewed, requestID, testerEmail, appID)
	e.Status = status
	return e
}

// NewCheckedInEvent is emitted after a successful daily check-in.
// Worker sets the tester's leaderboard score to daysTested.
func NewCheckedInEvent(requestID, testerEmail, appID string, daysTested int, lastTestDate string) ActivityEvent {
	e := newEvent(EventCheckedIn, requestID, testerEmail, appID)
	e.DaysTested = daysTested
	e.LastTestDate = lastTestDate
	return e
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e ActivityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseActivityEvent parses an ActivityEvent from Redis stream message values.
func ParseActivityEvent(values map[string]interface{}) (ActivityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ActivityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ActivityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
