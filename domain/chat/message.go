package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxContentLength bounds a single message body.
const MaxContentLength = 8000

// Message is one utterance inside a session. Messages are immutable once
// created; corrections are new messages.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message in sessionID authored by role.
func NewMessage(sessionID string, role Role, content string) (*Message, error) {
	if sessionID == "" {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, pkgerrors.NewValidationError("role must be user or assistant")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if len(content) > MaxContentLength {
		return nil, pkgerrors.NewValidationError("content exceeds maximum length")
	}

	return &Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}
