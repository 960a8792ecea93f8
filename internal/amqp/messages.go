package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"budgetbook/internal/ports"
)

// NotificationMessage carries one user-facing notification to the notify
// worker. Delay is relative to Timestamp.
type NotificationMessage struct {
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Delay     time.Duration `json:"delay"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewNotificationMessage(title, body string, trigger *ports.Trigger) *NotificationMessage {
	msg := &NotificationMessage{
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
	if trigger != nil {
		msg.Delay = trigger.Delay
	}
	return msg
}

// DueAt is when the notification should be shown.
func (m *NotificationMessage) DueAt() time.Time {
	return m.Timestamp.Add(m.Delay)
}

// Trigger rebuilds the delivery trigger relative to now. Overdue
// notifications get a nil trigger.
func (m *NotificationMessage) Trigger(now time.Time) *ports.Trigger {
	remaining := m.DueAt().Sub(now)
	if remaining <= 0 {
		return nil
	}
	return &ports.Trigger{Delay: remaining}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Title == "" {
		return nil, errors.New("notification message without title")
	}
	return &msg, nil
}
