package di

import (
	"context"
	"fmt"

	"schoolhub-backend/application/commands"
	"schoolhub-backend/application/commands/bus"
	commands_handlers "schoolhub-backend/application/commands/handlers"
	"schoolhub-backend/application/ports"
	"schoolhub-backend/application/queries"
	querybus "schoolhub-backend/application/queries/bus"
	queries_handlers "schoolhub-backend/application/queries/handlers"
	"schoolhub-backend/application/sweep"
	"schoolhub-backend/infrastructure/config"
	"schoolhub-backend/infrastructure/messaging/eventbridge"
	"schoolhub-backend/infrastructure/persistence/dynamodb"
	"schoolhub-backend/interfaces/http/rest/handlers"
	"schoolhub-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
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

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideLoanRepository creates a loan repository
func ProvideLoanRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.LoanRepository {
	return dynamodb.NewLoanRepository(
		client,
		cfg.DynamoDBTable,
		cfg.DueDateIndexName, // GSI1 for due-date window queries
		cfg.LoanIndexName,    // GSI2 for direct loan lookups
		logger,
	)
}

// ProvideNotificationStore creates the notification store
func ProvideNotificationStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.NotificationStore {
	return dynamodb.NewNotificationStore(
		client,
		cfg.DynamoDBTable,
		cfg.DueDateIndexName, // GSI1 doubles as the pending-notification index
		logger,
	)
}

// ProvideNotificationSink exposes the store as the sweep's notification sink
func ProvideNotificationSink(store *dynamodb.NotificationStore) ports.NotificationSink {
	return store
}

// ProvideNotificationReader exposes the store for API reads
func ProvideNotificationReader(store *dynamodb.NotificationStore) ports.NotificationReader {
	return store
}

// ProvideEventBus creates an event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewEventBridgePublisher(
		client,
		cfg.EventBusName,
		logger,
	)
}

// ProvideMetrics creates metrics instance
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("SchoolHub/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates a tracer instance
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("SchoolHub")
}

// ProvideSweepEngine creates the overdue sweep engine
func ProvideSweepEngine(loans ports.LoanRepository, sink ports.NotificationSink, logger *zap.Logger) *sweep.Engine {
	return sweep.NewEngine(loans, sink, logger)
}

// ProvideNotificationDispatcher creates the background notification dispatcher
func ProvideNotificationDispatcher(
	store *dynamodb.NotificationStore,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *dynamodb.NotificationDispatcher {
	return dynamodb.NewNotificationDispatcher(store, eventBus, logger)
}

// ProvideSweepHandler creates the HTTP handler for the sweep endpoint
func ProvideSweepHandler(
	engine *sweep.Engine,
	eventBus ports.EventBus,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *handlers.SweepHandler {
	return handlers.NewSweepHandler(engine, eventBus, metrics, tracer, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	loanRepo ports.LoanRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()
	logging := bus.LoggingMiddleware(logger)

	checkoutHandler := commands_handlers.NewCheckoutLoanHandler(loanRepo, eventBus, logger)
	commandBus.Register(commands.CheckoutLoanCommand{}, logging(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			checkoutCmd, ok := cmd.(commands.CheckoutLoanCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return checkoutHandler.Handle(ctx, checkoutCmd)
		},
	}))

	returnHandler := commands_handlers.NewReturnLoanHandler(loanRepo, eventBus, logger)
	commandBus.Register(commands.ReturnLoanCommand{}, logging(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			returnCmd, ok := cmd.(commands.ReturnLoanCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return returnHandler.Handle(ctx, returnCmd)
		},
	}))

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	loanRepo ports.LoanRepository,
	notifications ports.NotificationReader,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	listLoansHandler := queries_handlers.NewListLoansHandler(loanRepo, logger)
	queryBus.Register(queries.ListLoansQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListLoansQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listLoansHandler.Handle(ctx, listQuery)
		},
	})

	listNotificationsHandler := queries_handlers.NewListNotificationsHandler(notifications, logger)
	queryBus.Register(queries.ListNotificationsQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListNotificationsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listNotificationsHandler.Handle(ctx, listQuery)
		},
	})

	return queryBus
}
