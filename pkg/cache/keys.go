package cache

import (
	"fmt"
	"strings"
)

// Key namespaces. Every cached result lives under exactly one of these, so
// invalidation can target all entries for an owner with a prefix delete.
const (
	nsUserSessions    = "user-sessions"
	nsSession         = "session"
	nsSessionMessages = "session-messages"
	nsSessionSearch   = "session-search"
)

// segmentEscaper makes caller-supplied segments safe to join with ":".
// Identities come straight from JWT subjects and search terms are free
// text, so both may contain the separator; escaping keeps the mapping from
// (segment values) to key injective. "%" is escaped first so the escape
// itself round-trips.
var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func segment(s string) string {
	return segmentEscaper.Replace(s)
}

// SessionListKey is the cache key for a user's unfiltered session list.
// The same userID/limit always produces the same key.
func SessionListKey(userID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", nsUserSessions, segment(userID), limit)
}

// SessionKey is the cache key for a single session looked up by ID.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", nsSession, segment(sessionID))
}

// MessageListKey is the cache key for one page of a session's messages.
// The pagination cursor is part of the key so each page caches
// independently.
func MessageListKey(sessionID string, limit int, cursor string) string {
	if cursor == "" {
		return fmt.Sprintf("%s:%s:%d", nsSessionMessages, segment(sessionID), limit)
	}
	return fmt.Sprintf("%s:%s:%d:%s", nsSessionMessages, segment(sessionID), limit, segment(cursor))
}

// SessionSearchKey is the cache key for a session title search.
func SessionSearchKey(userID string, query string, limit int) string {
	return fmt.Sprintf("%s:%s:%d:%s", nsSessionSearch, segment(userID), limit, segment(normalizeTerm(query)))
}

// UserSessionsPrefix matches every cached session list for userID.
func UserSessionsPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:", nsUserSessions, segment(userID))
}

// SessionMessagesPrefix matches every cached message page for sessionID.
func SessionMessagesPrefix(sessionID string) string {
	return fmt.Sprintf("%s:%s:", nsSessionMessages, segment(sessionID))
}

// UserSearchPrefix matches every cached search result for userID.
func UserSearchPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:", nsSessionSearch, segment(userID))
}

// normalizeTerm lowercases and trims a free-text term so that queries with
// identical intent share a key.
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
