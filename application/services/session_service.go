package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// List limits applied when the caller passes zero or an out-of-range value.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	// bulkDeleteWorkers caps the fan-out of a bulk session delete.
	bulkDeleteWorkers = 4
)

// SessionService owns the session use cases. Reads are cache-aside; every
// mutation invalidates strictly after the repository write commits.
type SessionService struct {
	sessions ports.SessionRepository
	messages ports.MessageRepository

	sessionCache *SessionCache
	listCache    *SessionListCache
	invalidator  *Invalidator
	readTTL      time.Duration

	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewSessionService creates a session service. readTTL <= 0 falls back to
// the cache stores' own default.
func NewSessionService(
	sessions ports.SessionRepository,
	messages ports.MessageRepository,
	sessionCache *SessionCache,
	listCache *SessionListCache,
	invalidator *Invalidator,
	readTTL time.Duration,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		messages:     messages,
		sessionCache: sessionCache,
		listCache:    listCache,
		invalidator:  invalidator,
		readTTL:      readTTL,
		publisher:    publisher,
		logger:       logger,
	}
}

// GetSession returns a single session owned by userID.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, pkgerrors.NewValidationError("invalid session ID format")
	}

	session, err := cache.WithCache(ctx, s.sessionCache, cache.SessionKey(sessionID), s.readTTL,
		func(ctx context.Context) (*chat.Session, error) {
			return s.sessions.GetByID(ctx, sessionID)
		})
	if err != nil {
		return nil, err
	}

	// Ownership is checked on every call, cached or not; the cache key is
	// session-scoped so the entry itself is user-agnostic.
	if !session.OwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("session")
	}

	return session, nil
}

// ListSessions returns the user's sessions, most recently active first,
// optionally filtered by a title search term.
func (s *SessionService) ListSessions(ctx context.Context, userID string, limit int, search string) ([]*chat.Session, error) {
	if search != "" {
		return s.SearchSessions(ctx, userID, search, limit)
	}

	limit = clampLimit(limit)
	return cache.WithCache(ctx, s.listCache, cache.SessionListKey(userID, limit), s.readTTL,
		func(ctx context.Context) ([]*chat.Session, error) {
			return s.sessions.ListByUser(ctx, userID, limit)
		})
}

// SearchSessions returns the user's sessions whose title matches query,
// most recently active first. Results cache under the search namespace so
// owner-prefix invalidation drops them alongside the lists.
func (s *SessionService) SearchSessions(ctx context.Context, userID, query string, limit int) ([]*chat.Session, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.NewValidationError("search query is required")
	}

	limit = clampLimit(limit)
	return cache.WithCache(ctx, s.listCache, cache.SessionSearchKey(userID, query, limit), s.readTTL,
		func(ctx context.Context) ([]*chat.Session, error) {
			return s.sessions.Search(ctx, userID, query, limit)
		})
}

// CountSessions returns how many sessions the user owns. Counts read the
// backing store directly; the list caches hold bounded pages and cannot
// answer this.
func (s *SessionService) CountSessions(ctx context.Context, userID string) (int, error) {
	return s.sessions.CountByUser(ctx, userID)
}

// CreateSession creates a new conversation for userID.
func (s *SessionService) CreateSession(ctx context.Context, userID, title string) (*chat.Session, error) {
	session, err := chat.NewSession(userID, title)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create session")
	}

	// Invalidation runs only after the write has committed; doing it
	// earlier would let a racing reader repopulate the cache with
	// pre-write data that then outlives the TTL.
	s.invalidator.SessionChanged(userID, session.ID)
	s.publishEvent(ctx, ports.ChatEvent{
		Type:      ports.EventSessionCreated,
		UserID:    userID,
		SessionID: session.ID,
		Timestamp: time.Now(),
	})

	s.logger.Info("Session created",
		zap.String("sessionID", session.ID),
		zap.String("userID", userID),
	)

	return session, nil
}

// RenameSession retitles a session owned by userID.
func (s *SessionService) RenameSession(ctx context.Context, userID, sessionID, title string) (*chat.Session, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Rename(title); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to rename session")
	}

	s.invalidator.SessionChanged(userID, sessionID)
	s.publishEvent(ctx, ports.ChatEvent{
		Type:      ports.EventSessionUpdated,
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})

	return session, nil
}

// DeleteSession removes a session and its entire message history.
func (s *SessionService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}

	if err := s.messages.DeleteBySession(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(err, "failed to delete session messages")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(err, "failed to delete session")
	}

	s.invalidator.SessionDeleted(userID, sessionID)
	s.publishEvent(ctx, ports.ChatEvent{
		Type:      ports.EventSessionDeleted,
		UserID:    userID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})

	s.logger.Info("Session deleted",
		zap.String("sessionID", sessionID),
		zap.String("userID", userID),
	)

	return nil
}

// BulkDeleteResult reports the outcome of a bulk session delete.
type BulkDeleteResult struct {
	DeletedIDs []string `json:"deleted_ids"`
	FailedIDs  []string `json:"failed_ids,omitempty"`
}

// BulkDeleteSessions deletes several sessions, skipping ones the user does
// not own. The cache invalidation covers the union of every session that
// was actually deleted, and runs once after all deletes have committed.
func (s *SessionService) BulkDeleteSessions(ctx context.Context, userID string, sessionIDs []string) (*BulkDeleteResult, error) {
	if len(sessionIDs) == 0 {
		return nil, pkgerrors.NewValidationError("no session IDs provided")
	}

	var (
		mu     sync.Mutex
		result BulkDeleteResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkDeleteWorkers)

	for _, sessionID := range sessionIDs {
		g.Go(func() error {
			err := s.deleteOwned(gctx, userID, sessionID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("Failed to delete session in bulk operation",
					zap.String("sessionID", sessionID),
					zap.Error(err),
				)
				result.FailedIDs = append(result.FailedIDs, sessionID)
				return nil // keep deleting the rest
			}
			result.DeletedIDs = append(result.DeletedIDs, sessionID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(result.DeletedIDs) > 0 {
		s.invalidator.SessionsDeleted(userID, result.DeletedIDs)

		events := make([]ports.ChatEvent, 0, len(result.DeletedIDs))
		for _, id := range result.DeletedIDs {
			events = append(events, ports.ChatEvent{
				Type:      ports.EventSessionDeleted,
				UserID:    userID,
				SessionID: id,
				Timestamp: time.Now(),
			})
		}
		if err := s.publisher.PublishBatch(ctx, events); err != nil {
			s.logger.Warn("Failed to publish bulk delete events", zap.Error(err))
		}
	}

	return &result, nil
}

// ownedSession fetches a session from the backing store (not the cache;
// mutation paths read authoritative state) and enforces ownership.
func (s *SessionService) ownedSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, pkgerrors.NewValidationError("invalid session ID format")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.OwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("session")
	}
	return session, nil
}

func (s *SessionService) deleteOwned(ctx context.Context, userID, sessionID string) error {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.messages.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// publishEvent emits a chat event; failures are logged, never propagated.
func (s *SessionService) publishEvent(ctx context.Context, event ports.ChatEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
