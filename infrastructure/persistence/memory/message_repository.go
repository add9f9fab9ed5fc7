package memory

import (
	"context"
	"sync"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
)

// MessageRepository is an in-memory ports.MessageRepository. Messages are
// kept per session in insertion (chronological) order; the pagination
// cursor is the ID of the last message of the previous page.
type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]*chat.Message
}

// NewMessageRepository creates an empty in-memory message repository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		messages: make(map[string][]*chat.Message),
	}
}

// Save appends a message to its session's history.
func (r *MessageRepository) Save(ctx context.Context, message *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *message
	r.messages[message.SessionID] = append(r.messages[message.SessionID], &copied)
	return nil
}

// ListBySession returns one page of a session's messages, oldest first.
// An unknown session yields an empty page, matching a query against a
// store with no items for that key.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string, limit int, cursor string) (*ports.MessagePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[sessionID]

	start := 0
	if cursor != "" {
		for i, msg := range all {
			if msg.ID == cursor {
				start = i + 1
				break
			}
		}
	}

	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	page := &ports.MessagePage{}
	for _, msg := range all[start:end] {
		copied := *msg
		page.Messages = append(page.Messages, &copied)
	}

	if end < len(all) && len(page.Messages) > 0 {
		page.NextCursor = page.Messages[len(page.Messages)-1].ID
	}

	return page, nil
}

// ListRecent returns the session's last limit messages, oldest first.
func (r *MessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[sessionID]

	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}

	result := make([]*chat.Message, 0, len(all)-start)
	for _, msg := range all[start:] {
		copied := *msg
		result = append(result, &copied)
	}
	return result, nil
}

// DeleteBySession drops a session's entire history.
func (r *MessageRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.messages, sessionID)
	return nil
}

var _ ports.MessageRepository = (*MessageRepository)(nil)
