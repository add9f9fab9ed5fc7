// Package reply provides ReplyGenerator implementations.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
)

// CannedGenerator produces deterministic counselor replies without calling
// a model. It serves local development and tests.
type CannedGenerator struct{}

// NewCannedGenerator creates a canned reply generator
func NewCannedGenerator() *CannedGenerator {
	return &CannedGenerator{}
}

// GenerateReply echoes a short acknowledgement of the user's message
func (g *CannedGenerator) GenerateReply(ctx context.Context, session *chat.Session, history []*chat.Message, userMessage *chat.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	excerpt := userMessage.Content
	const excerptLimit = 80
	if len(excerpt) > excerptLimit {
		excerpt = strings.TrimSpace(excerpt[:excerptLimit]) + "…"
	}

	return fmt.Sprintf(
		"Thanks for sharing that. You mentioned %q — let's explore what that means for your career goals. Could you tell me more about what matters most to you here?",
		excerpt,
	), nil
}

var _ ports.ReplyGenerator = (*CannedGenerator)(nil)
