// Package services implements the application's use cases. Reads go through
// the cache-aside layer; every mutation writes to the backing store first
// and invalidates the affected cache keys before returning.
package services

import (
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
)

// Cache types, one per logical result shape.
type (
	// SessionCache holds single sessions keyed by cache.SessionKey.
	SessionCache = cache.Store[*chat.Session]

	// SessionListCache holds session lists and search results.
	SessionListCache = cache.Store[[]*chat.Session]

	// MessageCache holds message pages keyed by cache.MessageListKey.
	MessageCache = cache.Store[*ports.MessagePage]
)

// Invalidator derives the cache keys a mutation can have affected and
// removes them. All invalidation goes through this type so call sites
// cannot under-declare their target set; the derivation always covers the
// exact session key plus every owner-scoped prefix whose values depend on
// the mutated entity. Over-invalidation only costs a recompute.
//
// Invalidation is deliberately non-fatal: by the time it runs the backing
// store write has committed, and serving stale data for up to one TTL beats
// failing the mutation.
type Invalidator struct {
	sessions     *SessionCache
	sessionLists *SessionListCache
	messages     *MessageCache
	logger       *zap.Logger
}

// NewInvalidator creates an invalidator over the three cache stores.
func NewInvalidator(
	sessions *SessionCache,
	sessionLists *SessionListCache,
	messages *MessageCache,
	logger *zap.Logger,
) *Invalidator {
	return &Invalidator{
		sessions:     sessions,
		sessionLists: sessionLists,
		messages:     messages,
		logger:       logger,
	}
}

// SessionChanged invalidates everything derived from a created, renamed or
// otherwise mutated session: its exact key, the owner's session lists and
// the owner's search results.
func (i *Invalidator) SessionChanged(userID, sessionID string) {
	i.sessions.Delete(cache.SessionKey(sessionID))
	removed := i.sessionLists.DeleteByPrefix(cache.UserSessionsPrefix(userID))
	removed += i.sessionLists.DeleteByPrefix(cache.UserSearchPrefix(userID))

	i.logger.Debug("Invalidated session caches",
		zap.String("userID", userID),
		zap.String("sessionID", sessionID),
		zap.Int("listEntries", removed),
	)
}

// SessionDeleted additionally drops every cached message page of the
// deleted session.
func (i *Invalidator) SessionDeleted(userID, sessionID string) {
	i.SessionChanged(userID, sessionID)
	i.messages.DeleteByPrefix(cache.SessionMessagesPrefix(sessionID))
}

// SessionsDeleted invalidates the union of all affected sessions' keys
// after a bulk delete.
func (i *Invalidator) SessionsDeleted(userID string, sessionIDs []string) {
	for _, sessionID := range sessionIDs {
		i.sessions.Delete(cache.SessionKey(sessionID))
		i.messages.DeleteByPrefix(cache.SessionMessagesPrefix(sessionID))
	}
	i.sessionLists.DeleteByPrefix(cache.UserSessionsPrefix(userID))
	i.sessionLists.DeleteByPrefix(cache.UserSearchPrefix(userID))

	i.logger.Debug("Invalidated session caches after bulk delete",
		zap.String("userID", userID),
		zap.Int("sessions", len(sessionIDs)),
	)
}

// MessagesChanged invalidates a session's message pages plus the session
// itself; message mutations move the session's activity timestamp and
// message count, which the session lists display.
func (i *Invalidator) MessagesChanged(userID, sessionID string) {
	i.messages.DeleteByPrefix(cache.SessionMessagesPrefix(sessionID))
	i.SessionChanged(userID, sessionID)
}
