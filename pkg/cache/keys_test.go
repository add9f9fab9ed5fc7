package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterminism(t *testing.T) {
	assert.Equal(t, SessionListKey("u1", 20), SessionListKey("u1", 20))
	assert.Equal(t, SessionKey("s1"), SessionKey("s1"))
	assert.Equal(t, MessageListKey("s1", 50, "c1"), MessageListKey("s1", 50, "c1"))
	assert.Equal(t, SessionSearchKey("u1", "Career", 10), SessionSearchKey("u1", "career", 10))
	assert.Equal(t, SessionSearchKey("u1", " resume ", 10), SessionSearchKey("u1", "resume", 10))
}

func TestKeyUniqueness(t *testing.T) {
	keys := []string{
		SessionListKey("u1", 20),
		SessionListKey("u1", 50),
		SessionListKey("u2", 20),
		SessionKey("s1"),
		SessionKey("s2"),
		MessageListKey("s1", 50, ""),
		MessageListKey("s1", 50, "c1"),
		MessageListKey("s1", 20, ""),
		MessageListKey("s2", 50, ""),
		SessionSearchKey("u1", "go", 10),
		SessionSearchKey("u1", "rust", 10),
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key produced for distinct intent: %s", k)
		seen[k] = true
	}
}

// Identities arrive from JWT subjects and search terms are free text, so
// either may contain the key separator. Distinct (identity, term, limit)
// triples must never share a key regardless of content.
func TestKeySeparatorInSegments(t *testing.T) {
	assert.NotEqual(t,
		SessionSearchKey("a:7", "x", 9),
		SessionSearchKey("a", "9:x", 7))
	assert.NotEqual(t,
		SessionSearchKey("a:7", "x", 9),
		SessionSearchKey("a", "7:9:x", 9))
	assert.NotEqual(t,
		SessionListKey("u:20", 5),
		SessionListKey("u", 20))
	assert.NotEqual(t,
		MessageListKey("s", 5, "1:c"),
		MessageListKey("s:5", 1, "c"))

	// Escaping stays deterministic.
	assert.Equal(t, SessionSearchKey("a:7", "x", 9), SessionSearchKey("a:7", "x", 9))
}

func TestOwnerPrefixesCoverOwnedKeys(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
	}{
		{"session list", UserSessionsPrefix("u1"), SessionListKey("u1", 20)},
		{"message page", SessionMessagesPrefix("s1"), MessageListKey("s1", 50, "")},
		{"message page with cursor", SessionMessagesPrefix("s1"), MessageListKey("s1", 50, "c9")},
		{"search", UserSearchPrefix("u1"), SessionSearchKey("u1", "go", 10)},
		{"search with colons in identity", UserSearchPrefix("a:7"), SessionSearchKey("a:7", "x", 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, len(tt.key) > len(tt.prefix) && tt.key[:len(tt.prefix)] == tt.prefix,
				"prefix %q must cover key %q", tt.prefix, tt.key)
		})
	}
}

func TestOwnerPrefixesDoNotCrossOwners(t *testing.T) {
	// "u1" must not match keys belonging to "u10".
	key := SessionListKey("u10", 20)
	prefix := UserSessionsPrefix("u1")
	assert.NotEqual(t, prefix, key[:len(prefix)])

	// Nor may a colon-bearing identity leak under a shorter owner's prefix.
	assert.False(t, strings.HasPrefix(SessionListKey("a:7", 20), UserSessionsPrefix("a")))
	assert.False(t, strings.HasPrefix(SessionSearchKey("a:7", "x", 9), UserSearchPrefix("a")))
}
