package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/persistence/memory"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []ports.ChatEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event ports.ChatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, events []ports.ChatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type sessionFixture struct {
	service   *SessionService
	sessions  *memory.SessionRepository
	messages  *memory.MessageRepository
	publisher *capturingPublisher
	listCache *SessionListCache
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	sessionCache := cache.NewStore[*chat.Session]()
	listCache := cache.NewStore[[]*chat.Session]()
	messageCache := cache.NewStore[*ports.MessagePage]()
	t.Cleanup(func() {
		sessionCache.Close()
		listCache.Close()
		messageCache.Close()
	})

	logger := zap.NewNop()
	invalidator := NewInvalidator(sessionCache, listCache, messageCache, logger)

	sessions := memory.NewSessionRepository()
	messages := memory.NewMessageRepository()
	publisher := &capturingPublisher{}

	service := NewSessionService(
		sessions, messages,
		sessionCache, listCache, invalidator, time.Minute,
		publisher, logger,
	)

	return &sessionFixture{
		service:   service,
		sessions:  sessions,
		messages:  messages,
		publisher: publisher,
		listCache: listCache,
	}
}

func TestSessionService_CreateSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	t.Run("creates with explicit title", func(t *testing.T) {
		session, err := f.service.CreateSession(ctx, "user-1", "Career change advice")
		require.NoError(t, err)
		assert.Equal(t, "Career change advice", session.Title)
		assert.Equal(t, "user-1", session.UserID)
		assert.NotEmpty(t, session.ID)
	})

	t.Run("defaults empty title", func(t *testing.T) {
		session, err := f.service.CreateSession(ctx, "user-1", "")
		require.NoError(t, err)
		assert.Equal(t, "New conversation", session.Title)
	})

	t.Run("publishes created event", func(t *testing.T) {
		assert.Contains(t, f.publisher.eventTypes(), ports.EventSessionCreated)
	})
}

func TestSessionService_GetSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx, "user-1", "Resume review")
	require.NoError(t, err)

	t.Run("returns owned session", func(t *testing.T) {
		got, err := f.service.GetSession(ctx, "user-1", session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
	})

	t.Run("hides other users' sessions", func(t *testing.T) {
		_, err := f.service.GetSession(ctx, "user-2", session.ID)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("rejects malformed ID", func(t *testing.T) {
		_, err := f.service.GetSession(ctx, "user-1", "not-a-uuid")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("unknown ID is not found", func(t *testing.T) {
		_, err := f.service.GetSession(ctx, "user-1", uuid.NewString())
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestSessionService_ListSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	for _, title := range []string{"Interview prep", "Salary negotiation", "Resume review"} {
		_, err := f.service.CreateSession(ctx, "user-1", title)
		require.NoError(t, err)
	}
	_, err := f.service.CreateSession(ctx, "user-2", "Other user's chat")
	require.NoError(t, err)

	t.Run("lists only the owner's sessions", func(t *testing.T) {
		sessions, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
		for _, s := range sessions {
			assert.Equal(t, "user-1", s.UserID)
		}
	})

	t.Run("search filters by title", func(t *testing.T) {
		sessions, err := f.service.ListSessions(ctx, "user-1", 0, "resume")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Resume review", sessions[0].Title)
	})

	t.Run("respects the limit", func(t *testing.T) {
		sessions, err := f.service.ListSessions(ctx, "user-1", 2, "")
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("serves repeated reads from cache", func(t *testing.T) {
		before, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)

		// Write behind the service's back; the cached list must not see it.
		rogue, err := chat.NewSession("user-1", "Uncached")
		require.NoError(t, err)
		require.NoError(t, f.sessions.Save(ctx, rogue))

		after, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after))
	})

	t.Run("mutation invalidates cached lists", func(t *testing.T) {
		_, err := f.service.CreateSession(ctx, "user-1", "Fresh conversation")
		require.NoError(t, err)

		sessions, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)
		titles := make([]string, 0, len(sessions))
		for _, s := range sessions {
			titles = append(titles, s.Title)
		}
		assert.Contains(t, titles, "Fresh conversation")
	})
}

func TestSessionService_SearchSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateSession(ctx, "user-1", "Resume review")
	require.NoError(t, err)
	_, err = f.service.CreateSession(ctx, "user-1", "Interview prep")
	require.NoError(t, err)

	t.Run("matches titles case-insensitively", func(t *testing.T) {
		sessions, err := f.service.SearchSessions(ctx, "user-1", "RESUME", 0)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Resume review", sessions[0].Title)
	})

	t.Run("rejects a blank query", func(t *testing.T) {
		_, err := f.service.SearchSessions(ctx, "user-1", "  ", 0)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("identities with separators never share cache entries", func(t *testing.T) {
		// "a:7" searching "x" with limit 9 and "a" searching "9:x" with
		// limit 7 are distinct intents; the cached result of one must not
		// be served for the other.
		_, err := f.service.CreateSession(ctx, "a:7", "x marks the spot")
		require.NoError(t, err)

		first, err := f.service.SearchSessions(ctx, "a:7", "x", 9)
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := f.service.SearchSessions(ctx, "a", "9:x", 7)
		require.NoError(t, err)
		assert.Empty(t, second)
	})
}

func TestSessionService_CountSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	count, err := f.service.CountSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for _, title := range []string{"a", "b", "c"} {
		_, err := f.service.CreateSession(ctx, "user-1", title)
		require.NoError(t, err)
	}
	_, err = f.service.CreateSession(ctx, "user-2", "other")
	require.NoError(t, err)

	count, err = f.service.CountSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSessionService_RenameSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx, "user-1", "Old title")
	require.NoError(t, err)

	t.Run("renames and rereads the new title", func(t *testing.T) {
		renamed, err := f.service.RenameSession(ctx, "user-1", session.ID, "New title")
		require.NoError(t, err)
		assert.Equal(t, "New title", renamed.Title)

		got, err := f.service.GetSession(ctx, "user-1", session.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
	})

	t.Run("rejects other users", func(t *testing.T) {
		_, err := f.service.RenameSession(ctx, "user-2", session.ID, "Hijacked")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestSessionService_DeleteSession(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	session, err := f.service.CreateSession(ctx, "user-1", "Doomed")
	require.NoError(t, err)

	// Warm the caches so the delete has something to invalidate.
	_, err = f.service.GetSession(ctx, "user-1", session.ID)
	require.NoError(t, err)
	_, err = f.service.ListSessions(ctx, "user-1", 0, "")
	require.NoError(t, err)

	t.Run("rejects other users", func(t *testing.T) {
		err := f.service.DeleteSession(ctx, "user-2", session.ID)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("deletes and invalidates", func(t *testing.T) {
		require.NoError(t, f.service.DeleteSession(ctx, "user-1", session.ID))

		_, err := f.service.GetSession(ctx, "user-1", session.ID)
		assert.True(t, pkgerrors.IsNotFound(err))

		sessions, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSessionService_BulkDeleteSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		session, err := f.service.CreateSession(ctx, "user-1", title)
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}
	other, err := f.service.CreateSession(ctx, "user-2", "not yours")
	require.NoError(t, err)

	t.Run("deletes owned and reports failures", func(t *testing.T) {
		result, err := f.service.BulkDeleteSessions(ctx, "user-1", append(ids, other.ID))
		require.NoError(t, err)

		assert.ElementsMatch(t, ids, result.DeletedIDs)
		assert.Equal(t, []string{other.ID}, result.FailedIDs)

		sessions, err := f.service.ListSessions(ctx, "user-1", 0, "")
		require.NoError(t, err)
		assert.Empty(t, sessions)

		// The other user's session survives.
		got, err := f.service.GetSession(ctx, "user-2", other.ID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.ID)
	})

	t.Run("empty input is a validation error", func(t *testing.T) {
		_, err := f.service.BulkDeleteSessions(ctx, "user-1", nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}
