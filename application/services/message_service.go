package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
)

// replyHistoryLimit bounds how much history is handed to the reply
// generator for context.
const replyHistoryLimit = 20

// MessageService owns the message use cases: paginated history reads
// through the cache, and the send flow that appends the user message,
// obtains the counselor reply, and invalidates everything derived from the
// session's message history.
type MessageService struct {
	sessions ports.SessionRepository
	messages ports.MessageRepository

	sessionCache *SessionCache
	messageCache *MessageCache
	invalidator  *Invalidator
	readTTL      time.Duration

	replies   ports.ReplyGenerator
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewMessageService creates a message service.
func NewMessageService(
	sessions ports.SessionRepository,
	messages ports.MessageRepository,
	sessionCache *SessionCache,
	messageCache *MessageCache,
	invalidator *Invalidator,
	readTTL time.Duration,
	replies ports.ReplyGenerator,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		sessions:     sessions,
		messages:     messages,
		sessionCache: sessionCache,
		messageCache: messageCache,
		invalidator:  invalidator,
		readTTL:      readTTL,
		replies:      replies,
		publisher:    publisher,
		logger:       logger,
	}
}

// ListMessages returns one page of a session's history, oldest first.
func (m *MessageService) ListMessages(ctx context.Context, userID, sessionID string, limit int, cursor string) (*ports.MessagePage, error) {
	if err := m.checkOwnership(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	limit = clampLimit(limit)

	return cache.WithCache(ctx, m.messageCache, cache.MessageListKey(sessionID, limit, cursor), m.readTTL,
		func(ctx context.Context) (*ports.MessagePage, error) {
			return m.messages.ListBySession(ctx, sessionID, limit, cursor)
		})
}

// SendResult carries both halves of a completed exchange.
type SendResult struct {
	UserMessage *chat.Message `json:"user_message"`
	Reply       *chat.Message `json:"reply"`
}

// SendMessage appends the user's message, generates the counselor reply,
// and persists both. Cache invalidation happens after every write that
// commits: if reply generation fails the user message is already stored,
// so the message caches are invalidated before the error is returned.
func (m *MessageService) SendMessage(ctx context.Context, userID, sessionID, content string) (*SendResult, error) {
	session, err := m.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg, err := chat.NewMessage(sessionID, chat.RoleUser, content)
	if err != nil {
		return nil, err
	}

	// History is fetched before the new message is stored so the reply
	// generator sees a consistent prefix of the conversation.
	history, err := m.recentHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := m.messages.Save(ctx, userMsg); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to store message")
	}

	replyText, err := m.replies.GenerateReply(ctx, session, history, userMsg)
	if err != nil {
		m.finishExchange(ctx, session, userID, 1)
		return nil, pkgerrors.NewExternalError("reply generator", err)
	}

	reply, err := chat.NewMessage(sessionID, chat.RoleAssistant, replyText)
	if err != nil {
		m.finishExchange(ctx, session, userID, 1)
		return nil, err
	}

	if err := m.messages.Save(ctx, reply); err != nil {
		m.finishExchange(ctx, session, userID, 1)
		return nil, pkgerrors.Wrap(err, "failed to store reply")
	}

	m.finishExchange(ctx, session, userID, 2)
	m.publishEvent(ctx, ports.ChatEvent{
		Type:      ports.EventMessageSent,
		UserID:    userID,
		SessionID: sessionID,
		MessageID: userMsg.ID,
		Timestamp: time.Now(),
	})

	m.logger.Debug("Message exchange completed",
		zap.String("sessionID", sessionID),
		zap.String("userID", userID),
	)

	return &SendResult{UserMessage: userMsg, Reply: reply}, nil
}

// finishExchange records n stored messages on the session and invalidates
// the caches the writes made stale. It runs even when the exchange was cut
// short, so a stored user message never lingers behind a stale page.
func (m *MessageService) finishExchange(ctx context.Context, session *chat.Session, userID string, n int) {
	session.RecordMessages(n)
	if err := m.sessions.Save(ctx, session); err != nil {
		m.logger.Warn("Failed to update session counters",
			zap.String("sessionID", session.ID),
			zap.Error(err),
		)
	}
	m.invalidator.MessagesChanged(userID, session.ID)
}

// checkOwnership verifies userID owns sessionID, via the session cache.
func (m *MessageService) checkOwnership(ctx context.Context, userID, sessionID string) error {
	session, err := cache.WithCache(ctx, m.sessionCache, cache.SessionKey(sessionID), m.readTTL,
		func(ctx context.Context) (*chat.Session, error) {
			return m.sessions.GetByID(ctx, sessionID)
		})
	if err != nil {
		return err
	}
	if !session.OwnedBy(userID) {
		return pkgerrors.NewNotFoundError("session")
	}
	return nil
}

// ownedSession reads authoritative session state for a mutation.
func (m *MessageService) ownedSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.OwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("session")
	}
	return session, nil
}

// recentHistory loads the tail of the conversation; the generator wants
// the latest exchanges for context, not the oldest page.
func (m *MessageService) recentHistory(ctx context.Context, sessionID string) ([]*chat.Message, error) {
	history, err := m.messages.ListRecent(ctx, sessionID, replyHistoryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load message history")
	}
	return history, nil
}

func (m *MessageService) publishEvent(ctx context.Context, event ports.ChatEvent) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.Error(err),
		)
	}
}
