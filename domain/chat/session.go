// Package chat holds the domain model for counseling conversations: a user
// owns sessions, and each session holds an ordered message history.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// MaxTitleLength bounds session titles; longer titles are rejected, not truncated.
const MaxTitleLength = 200

// Session represents one conversation between a user and the counselor.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSession creates a session owned by userID.
func NewSession(userID, title string) (*Session, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	if len(title) > MaxTitleLength {
		return nil, pkgerrors.NewValidationError("title exceeds maximum length")
	}

	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Rename replaces the session title.
func (s *Session) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return pkgerrors.NewValidationError("title exceeds maximum length")
	}

	s.Title = title
	s.UpdatedAt = time.Now()
	return nil
}

// RecordMessages bumps the message count and activity timestamp after n
// messages were appended.
func (s *Session) RecordMessages(n int) {
	if n <= 0 {
		return
	}
	s.MessageCount += n
	s.UpdatedAt = time.Now()
}

// OwnedBy reports whether userID owns this session.
func (s *Session) OwnedBy(userID string) bool {
	return s.UserID == userID
}
