package ports

import (
	"context"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
)

// ReplyGenerator produces the counselor's reply to a user message. The
// actual model call lives outside this subsystem; tests and local
// development use a canned implementation.
type ReplyGenerator interface {
	// GenerateReply returns the assistant's response to the latest user
	// message, given the recent history for context.
	GenerateReply(ctx context.Context, session *chat.Session, history []*chat.Message, userMessage *chat.Message) (string, error)
}
