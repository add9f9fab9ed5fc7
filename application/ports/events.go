package ports

import (
	"context"
	"time"
)

// ChatEvent is a lightweight notification emitted after a mutation commits.
// Consumers (analytics, moderation) are external; delivery is best effort
// and a publish failure never fails the mutation that produced it.
type ChatEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types.
const (
	EventSessionCreated = "session.created"
	EventSessionUpdated = "session.updated"
	EventSessionDeleted = "session.deleted"
	EventMessageSent    = "message.sent"
)

// EventPublisher defines the interface for publishing chat events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event ChatEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []ChatEvent) error
}
