// Package di wires the application graph with google/wire.
package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/ports"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/application/services"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/domain/chat"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/config"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/messaging"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/messaging/eventbridge"
	dynamopersist "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/persistence/dynamodb"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/persistence/memory"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/reply"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/interfaces/http/rest"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/interfaces/http/rest/handlers"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/auth"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/cache"
	pkgerrors "github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/errors"
	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/pkg/ratelimit"
)

// devJWTSecret backs local runs where no secret is configured. Validate
// rejects it for production.
const devJWTSecret = "development-secret-change-in-production"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideSessionRepository creates a session repository for the configured
// persistence driver
func ProvideSessionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SessionRepository {
	if cfg.PersistenceDriver == "memory" {
		return memory.NewSessionRepository()
	}
	return dynamopersist.NewSessionRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideMessageRepository creates a message repository for the configured
// persistence driver
func ProvideMessageRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.MessageRepository {
	if cfg.PersistenceDriver == "memory" {
		return memory.NewMessageRepository()
	}
	return dynamopersist.NewMessageRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates an event publisher. Without a configured
// bus name events only hit the log.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideReplyGenerator creates the counselor reply generator
func ProvideReplyGenerator() ports.ReplyGenerator {
	return reply.NewCannedGenerator()
}

// ProvideSessionCache creates the single-session cache store
func ProvideSessionCache(cfg *config.Config) *services.SessionCache {
	return cache.NewStore[*chat.Session](
		cache.WithCapacity(cfg.CacheCapacity),
		cache.WithDefaultTTL(cfg.SessionCacheTTL),
		cache.WithSweepInterval(cfg.CacheSweepInterval),
	)
}

// ProvideSessionListCache creates the session list and search cache store
func ProvideSessionListCache(cfg *config.Config) *services.SessionListCache {
	return cache.NewStore[[]*chat.Session](
		cache.WithCapacity(cfg.CacheCapacity),
		cache.WithDefaultTTL(cfg.SessionCacheTTL),
		cache.WithSweepInterval(cfg.CacheSweepInterval),
	)
}

// ProvideMessageCache creates the message page cache store
func ProvideMessageCache(cfg *config.Config) *services.MessageCache {
	return cache.NewStore[*ports.MessagePage](
		cache.WithCapacity(cfg.CacheCapacity),
		cache.WithDefaultTTL(cfg.MessageCacheTTL),
		cache.WithSweepInterval(cfg.CacheSweepInterval),
	)
}

// ProvideInvalidator creates the cache invalidator
func ProvideInvalidator(
	sessions *services.SessionCache,
	sessionLists *services.SessionListCache,
	messages *services.MessageCache,
	logger *zap.Logger,
) *services.Invalidator {
	return services.NewInvalidator(sessions, sessionLists, messages, logger)
}

// ProvideSessionService creates the session service
func ProvideSessionService(
	sessions ports.SessionRepository,
	messages ports.MessageRepository,
	sessionCache *services.SessionCache,
	listCache *services.SessionListCache,
	invalidator *services.Invalidator,
	publisher ports.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *services.SessionService {
	return services.NewSessionService(
		sessions, messages,
		sessionCache, listCache, invalidator, cfg.SessionCacheTTL,
		publisher, logger,
	)
}

// ProvideMessageService creates the message service
func ProvideMessageService(
	sessions ports.SessionRepository,
	messages ports.MessageRepository,
	sessionCache *services.SessionCache,
	messageCache *services.MessageCache,
	invalidator *services.Invalidator,
	replies ports.ReplyGenerator,
	publisher ports.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *services.MessageService {
	return services.NewMessageService(
		sessions, messages,
		sessionCache, messageCache, invalidator, cfg.MessageCacheTTL,
		replies, publisher, logger,
	)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideJWTValidator creates the JWT validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideRateLimiters creates the per-endpoint rate limiters
func ProvideRateLimiters(cfg *config.Config) *rest.RateLimiters {
	return &rest.RateLimiters{
		SessionRead: ratelimit.NewLimiter(
			ratelimit.WithWindow(cfg.ReadLimitWindow),
			ratelimit.WithMaxRequests(cfg.ReadLimitMax),
			ratelimit.WithIdleSweep(cfg.CacheSweepInterval),
		),
		SessionWrite: ratelimit.NewLimiter(
			ratelimit.WithWindow(cfg.WriteLimitWindow),
			ratelimit.WithMaxRequests(cfg.WriteLimitMax),
			ratelimit.WithIdleSweep(cfg.CacheSweepInterval),
		),
		Search: ratelimit.NewLimiter(
			ratelimit.WithWindow(cfg.SearchLimitWindow),
			ratelimit.WithMaxRequests(cfg.SearchLimitMax),
			ratelimit.WithIdleSweep(cfg.CacheSweepInterval),
		),
		MessageRead: ratelimit.NewLimiter(
			ratelimit.WithWindow(cfg.ReadLimitWindow),
			ratelimit.WithMaxRequests(cfg.ReadLimitMax),
			ratelimit.WithIdleSweep(cfg.CacheSweepInterval),
		),
		MessageSend: ratelimit.NewLimiter(
			ratelimit.WithWindow(cfg.SendLimitWindow),
			ratelimit.WithMaxRequests(cfg.SendLimitMax),
			ratelimit.WithIdleSweep(cfg.CacheSweepInterval),
		),
	}
}

// ProvideSessionHandler creates the session HTTP handler
func ProvideSessionHandler(sessions *services.SessionService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.SessionHandler {
	return handlers.NewSessionHandler(sessions, errorHandler, logger)
}

// ProvideMessageHandler creates the message HTTP handler
func ProvideMessageHandler(messages *services.MessageService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.MessageHandler {
	return handlers.NewMessageHandler(messages, errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	sessionHandler *handlers.SessionHandler,
	messageHandler *handlers.MessageHandler,
	validator *auth.JWTValidator,
	limiters *rest.RateLimiters,
	errorHandler *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(sessionHandler, messageHandler, validator, limiters, errorHandler, cfg.AllowedOrigins, logger)
}

// Container holds the wired application
type Container struct {
	Config           *config.Config
	Logger           *zap.Logger
	SessionCache     *services.SessionCache
	SessionListCache *services.SessionListCache
	MessageCache     *services.MessageCache
	RateLimiters     *rest.RateLimiters
	SessionService   *services.SessionService
	MessageService   *services.MessageService
	Router           *rest.Router
}

// Close releases background resources: cache sweepers and limiter
// sweepers. Safe to call once during shutdown.
func (c *Container) Close() {
	c.SessionCache.Close()
	c.SessionListCache.Close()
	c.MessageCache.Close()
	c.RateLimiters.Close()
}
