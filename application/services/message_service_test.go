package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/persistence/memory"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// scriptedReplies returns fixed replies, or fails when told to
type scriptedReplies struct {
	fail    bool
	history []*chat.Message // what the last call saw
}

func (r *scriptedReplies) GenerateReply(ctx context.Context, session *chat.Session, history []*chat.Message, userMessage *chat.Message) (string, error) {
	r.history = history
	if r.fail {
		return "", errors.New("model unavailable")
	}
	return "Let's unpack that together.", nil
}

type messageFixture struct {
	sessionSvc *SessionService
	service    *MessageService
	sessions   *memory.SessionRepository
	messages   *memory.MessageRepository
	replies    *scriptedReplies
	publisher  *capturingPublisher
}

func newMessageFixture(t *testing.T) *messageFixture {
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
	replies := &scriptedReplies{}
	publisher := &capturingPublisher{}

	sessionSvc := NewSessionService(
		sessions, messages,
		sessionCache, listCache, invalidator, time.Minute,
		publisher, logger,
	)
	service := NewMessageService(
		sessions, messages,
		sessionCache, messageCache, invalidator, time.Minute,
		replies, publisher, logger,
	)

	return &messageFixture{
		sessionSvc: sessionSvc,
		service:    service,
		sessions:   sessions,
		messages:   messages,
		replies:    replies,
		publisher:  publisher,
	}
}

func (f *messageFixture) newSession(t *testing.T, userID string) *chat.Session {
	t.Helper()
	session, err := f.sessionSvc.CreateSession(context.Background(), userID, "")
	require.NoError(t, err)
	return session
}

func TestMessageService_SendMessage(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	session := f.newSession(t, "user-1")

	t.Run("stores both halves of the exchange", func(t *testing.T) {
		result, err := f.service.SendMessage(ctx, "user-1", session.ID, "How do I switch careers?")
		require.NoError(t, err)

		assert.Equal(t, chat.RoleUser, result.UserMessage.Role)
		assert.Equal(t, "How do I switch careers?", result.UserMessage.Content)
		assert.Equal(t, chat.RoleAssistant, result.Reply.Role)
		assert.NotEmpty(t, result.Reply.Content)

		page, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, chat.RoleUser, page.Messages[0].Role)
		assert.Equal(t, chat.RoleAssistant, page.Messages[1].Role)
	})

	t.Run("updates the session message count", func(t *testing.T) {
		got, err := f.sessionSvc.GetSession(ctx, "user-1", session.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.MessageCount)
	})

	t.Run("publishes message sent event", func(t *testing.T) {
		assert.Contains(t, f.publisher.eventTypes(), ports.EventMessageSent)
	})

	t.Run("passes prior history to the generator", func(t *testing.T) {
		_, err := f.service.SendMessage(ctx, "user-1", session.ID, "Tell me more.")
		require.NoError(t, err)
		// The generator sees the conversation before the new message.
		assert.Len(t, f.replies.history, 2)
	})

	t.Run("rejects other users", func(t *testing.T) {
		_, err := f.service.SendMessage(ctx, "user-2", session.ID, "hi")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := f.service.SendMessage(ctx, "user-1", session.ID, "")
		assert.Error(t, err)
	})
}

func TestMessageService_SendMessage_HistoryIsMostRecent(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	session := f.newSession(t, "user-1")

	// Grow the conversation past the history window: each exchange stores
	// two messages.
	exchanges := replyHistoryLimit/2 + 3
	for i := 0; i < exchanges; i++ {
		_, err := f.service.SendMessage(ctx, "user-1", session.ID, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	_, err := f.service.SendMessage(ctx, "user-1", session.ID, "final question")
	require.NoError(t, err)

	// The generator gets the tail of the conversation, capped at the
	// window, ending with the latest stored message.
	history := f.replies.history
	require.Len(t, history, replyHistoryLimit)
	assert.Equal(t, chat.RoleAssistant, history[len(history)-1].Role)

	page, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
	require.NoError(t, err)
	require.NotEmpty(t, page.Messages)
	assert.Contains(t, historyContents(history), fmt.Sprintf("question %d", exchanges-1))
	assert.NotContains(t, historyContents(history), "question 0")
}

func historyContents(messages []*chat.Message) []string {
	contents := make([]string, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, msg.Content)
	}
	return contents
}

func TestMessageService_SendMessage_ReplyFailure(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	session := f.newSession(t, "user-1")

	// Warm the message page cache so the failure path has something stale
	// to invalidate.
	_, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
	require.NoError(t, err)

	f.replies.fail = true
	_, err = f.service.SendMessage(ctx, "user-1", session.ID, "Are you there?")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))

	// The user message committed before the reply failed, so a fresh read
	// must show it rather than the stale cached page.
	page, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, chat.RoleUser, page.Messages[0].Role)
	assert.Equal(t, "Are you there?", page.Messages[0].Content)

	got, err := f.sessionSvc.GetSession(ctx, "user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MessageCount)
}

func TestMessageService_ListMessages(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	session := f.newSession(t, "user-1")

	for i := 0; i < 3; i++ {
		_, err := f.service.SendMessage(ctx, "user-1", session.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	t.Run("pages through history with cursors", func(t *testing.T) {
		var collected []*chat.Message
		cursor := ""
		for {
			page, err := f.service.ListMessages(ctx, "user-1", session.ID, 2, cursor)
			require.NoError(t, err)
			collected = append(collected, page.Messages...)
			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
		}

		require.Len(t, collected, 6)
		for i, msg := range collected {
			if i%2 == 0 {
				assert.Equal(t, chat.RoleUser, msg.Role)
			} else {
				assert.Equal(t, chat.RoleAssistant, msg.Role)
			}
		}
	})

	t.Run("hides other users' history", func(t *testing.T) {
		_, err := f.service.ListMessages(ctx, "user-2", session.ID, 0, "")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("serves repeated reads from cache", func(t *testing.T) {
		before, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
		require.NoError(t, err)

		// Write behind the service's back; the cached page must not see it.
		rogue, err := chat.NewMessage(session.ID, chat.RoleUser, "uncached")
		require.NoError(t, err)
		require.NoError(t, f.messages.Save(ctx, rogue))

		after, err := f.service.ListMessages(ctx, "user-1", session.ID, 0, "")
		require.NoError(t, err)
		assert.Equal(t, len(before.Messages), len(after.Messages))
	})

	t.Run("send invalidates cached pages", func(t *testing.T) {
		_, err := f.service.SendMessage(ctx, "user-1", session.ID, "another")
		require.NoError(t, err)

		page, err := f.service.ListMessages(ctx, "user-1", session.ID, 100, "")
		require.NoError(t, err)
		// 6 from the loop, 1 rogue, plus the new exchange.
		assert.Len(t, page.Messages, 9)
	})
}
