// Package ports declares the interfaces the application layer depends on.
// The backing store and all external collaborators live behind these; the
// domain never sees an implementation.
package ports

import (
	"context"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
)

// SessionRepository defines the persistence interface for sessions
type SessionRepository interface {
	// Save persists a session (create or update)
	Save(ctx context.Context, session *chat.Session) error

	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, sessionID string) (*chat.Session, error)

	// ListByUser retrieves up to limit sessions for a user, most recently
	// active first
	ListByUser(ctx context.Context, userID string, limit int) ([]*chat.Session, error)

	// Search retrieves up to limit sessions whose title matches query
	Search(ctx context.Context, userID, query string, limit int) ([]*chat.Session, error)

	// CountByUser returns how many sessions the user owns
	CountByUser(ctx context.Context, userID string) (int, error)

	// Delete removes a session
	Delete(ctx context.Context, sessionID string) error

	// DeleteBatch removes multiple sessions
	DeleteBatch(ctx context.Context, sessionIDs []string) error
}

// MessagePage is one page of a session's message history.
type MessagePage struct {
	Messages   []*chat.Message `json:"messages"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// MessageRepository defines the persistence interface for messages
type MessageRepository interface {
	// Save persists a message
	Save(ctx context.Context, message *chat.Message) error

	// ListBySession retrieves up to limit messages for a session in
	// chronological order, starting after cursor (empty cursor means the
	// beginning). The returned page carries the cursor for the next call.
	ListBySession(ctx context.Context, sessionID string, limit int, cursor string) (*MessagePage, error)

	// ListRecent retrieves the last limit messages of a session in
	// chronological order
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*chat.Message, error)

	// DeleteBySession removes every message in a session
	DeleteBySession(ctx context.Context, sessionID string) error
}
