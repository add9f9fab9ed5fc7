// Package messaging holds event publisher implementations that do not
// depend on a broker.
package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
)

// LogPublisher records events to the application log. It backs local
// development runs where no event bus is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a log-only event publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs a single event
func (p *LogPublisher) Publish(ctx context.Context, event ports.ChatEvent) error {
	p.logger.Debug("Event published",
		zap.String("eventType", event.Type),
		zap.String("userID", event.UserID),
		zap.String("sessionID", event.SessionID),
	)
	return nil
}

// PublishBatch logs multiple events
func (p *LogPublisher) PublishBatch(ctx context.Context, events []ports.ChatEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.EventPublisher = (*LogPublisher)(nil)
