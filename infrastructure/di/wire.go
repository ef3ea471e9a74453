//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"schoolhub-backend/application/commands/bus"
	"schoolhub-backend/application/ports"
	querybus "schoolhub-backend/application/queries/bus"
	"schoolhub-backend/application/sweep"
	"schoolhub-backend/infrastructure/config"
	"schoolhub-backend/infrastructure/persistence/dynamodb"
	"schoolhub-backend/interfaces/http/rest/handlers"
	"schoolhub-backend/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	LoanRepo     ports.LoanRepository
	EventBus     ports.EventBus
	SweepEngine  *sweep.Engine
	SweepHandler *handlers.SweepHandler
	Dispatcher   *dynamodb.NotificationDispatcher
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideLoanRepository,
	ProvideNotificationStore,
	ProvideNotificationSink,
	ProvideNotificationReader,
	ProvideEventBus,
	ProvideMetrics,
	ProvideTracer,
	ProvideSweepEngine,
	ProvideNotificationDispatcher,
	ProvideSweepHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
