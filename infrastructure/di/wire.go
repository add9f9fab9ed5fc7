//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/ShreYansHSachan11/Oration-AI-CareerCounselor-sub001/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideSessionRepository,
	ProvideMessageRepository,
	ProvideEventPublisher,
	ProvideReplyGenerator,
	ProvideSessionCache,
	ProvideSessionListCache,
	ProvideMessageCache,
	ProvideInvalidator,
	ProvideSessionService,
	ProvideMessageService,
	ProvideErrorHandler,
	ProvideJWTValidator,
	ProvideRateLimiters,
	ProvideSessionHandler,
	ProvideMessageHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
