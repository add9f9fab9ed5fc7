// Package memory provides map-backed repository implementations for tests
// and local development. They mirror the DynamoDB implementations'
// observable behavior, including not-found semantics and list ordering.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// SessionRepository is an in-memory ports.SessionRepository.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewSessionRepository creates an empty in-memory session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*chat.Session),
	}
}

// Save stores a copy of the session; callers keep ownership of theirs.
func (r *SessionRepository) Save(ctx context.Context, session *chat.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("session")
	}

	copied := *session
	return &copied, nil
}

// ListByUser returns up to limit of the user's sessions, most recently
// active first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(userID, limit, func(*chat.Session) bool { return true }), nil
}

// Search returns up to limit of the user's sessions whose title contains
// query, case-insensitively.
func (r *SessionRepository) Search(ctx context.Context, userID, query string, limit int) ([]*chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	return r.collect(userID, limit, func(s *chat.Session) bool {
		return strings.Contains(strings.ToLower(s.Title), needle)
	}), nil
}

// CountByUser returns how many sessions the user owns.
func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// DeleteBatch removes multiple sessions.
func (r *SessionRepository) DeleteBatch(ctx context.Context, sessionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range sessionIDs {
		delete(r.sessions, id)
	}
	return nil
}

// collect filters and orders the user's sessions. Caller holds the lock.
func (r *SessionRepository) collect(userID string, limit int, match func(*chat.Session) bool) []*chat.Session {
	var result []*chat.Session
	for _, session := range r.sessions {
		if session.UserID == userID && match(session) {
			copied := *session
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
