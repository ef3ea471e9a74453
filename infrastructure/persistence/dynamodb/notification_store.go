package dynamodb

import (
	"context"
	"fmt"
	"time"

	"schoolhub-backend/domain/notification"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const pendingNotificationPartition = "NOTIFICATION#PENDING"

// NotificationStore persists borrower notifications in DynamoDB. It is the
// sweep engine's notification sink: the engine appends pending events and a
// background dispatcher (see NotificationDispatcher) delivers them later.
type NotificationStore struct {
	client       *dynamodb.Client
	tableName    string
	pendingIndex string
	logger       *zap.Logger
}

// NewNotificationStore creates a new NotificationStore
func NewNotificationStore(client *dynamodb.Client, tableName, pendingIndex string, logger *zap.Logger) *NotificationStore {
	return &NotificationStore{
		client:       client,
		tableName:    tableName,
		pendingIndex: pendingIndex,
		logger:       logger,
	}
}

// notificationItem represents the DynamoDB item structure for a notification
type notificationItem struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	GSI1PK           string `dynamodbav:"GSI1PK,omitempty"` // Pending partition, removed on dispatch
	GSI1SK           string `dynamodbav:"GSI1SK,omitempty"`
	EntityType       string `dynamodbav:"EntityType"`
	NotificationID   string `dynamodbav:"NotificationID"`
	BorrowerID       string `dynamodbav:"BorrowerID"`
	Title            string `dynamodbav:"Title"`
	Message          string `dynamodbav:"Message"`
	Severity         string `dynamodbav:"Severity"`
	ReferenceID      string `dynamodbav:"ReferenceID"`
	CreatedAt        string `dynamodbav:"CreatedAt"`
	Status           string `dynamodbav:"Status"`
	DispatchAttempts int    `dynamodbav:"DispatchAttempts"`
	LastError        string `dynamodbav:"LastError,omitempty"`
}

func notificationKeys(event *notification.Event) (pk, sk string) {
	pk = fmt.Sprintf("BORROWER#%s", event.BorrowerID)
	sk = fmt.Sprintf("NOTIFICATION#%s#%s", event.CreatedAt.UTC().Format(time.RFC3339), event.ID)
	return pk, sk
}

func (s *NotificationStore) fromItem(item notificationItem) (*notification.Event, error) {
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid creation time on notification %s: %w", item.NotificationID, err)
	}

	return &notification.Event{
		ID:               item.NotificationID,
		BorrowerID:       item.BorrowerID,
		Title:            item.Title,
		Message:          item.Message,
		Severity:         notification.Severity(item.Severity),
		ReferenceID:      item.ReferenceID,
		CreatedAt:        createdAt,
		Status:           notification.Status(item.Status),
		DispatchAttempts: item.DispatchAttempts,
		LastError:        item.LastError,
	}, nil
}

// Notify records a pending notification. Implements ports.NotificationSink.
func (s *NotificationStore) Notify(ctx context.Context, event *notification.Event) error {
	pk, sk := notificationKeys(event)
	item := notificationItem{
		PK:               pk,
		SK:               sk,
		GSI1PK:           pendingNotificationPartition,
		GSI1SK:           event.CreatedAt.UTC().Format(time.RFC3339),
		EntityType:       "NOTIFICATION",
		NotificationID:   event.ID,
		BorrowerID:       event.BorrowerID,
		Title:            event.Title,
		Message:          event.Message,
		Severity:         string(event.Severity),
		ReferenceID:      event.ReferenceID,
		CreatedAt:        event.CreatedAt.UTC().Format(time.RFC3339),
		Status:           string(notification.StatusPending),
		DispatchAttempts: 0,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to record notification %s: %w", event.ID, err)
	}

	s.logger.Debug("Recorded notification",
		zap.String("notificationID", event.ID),
		zap.String("borrowerID", event.BorrowerID),
		zap.String("severity", string(event.Severity)),
	)

	return nil
}

// FindByBorrower lists a borrower's notifications, newest first.
// Implements ports.NotificationReader.
func (s *NotificationStore) FindByBorrower(ctx context.Context, borrowerID string, limit int) ([]*notification.Event, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("BORROWER#%s", borrowerID))).
		And(expression.Key("SK").BeginsWith("NOTIFICATION#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	events := make([]*notification.Event, 0, len(result.Items))
	for _, raw := range result.Items {
		var item notificationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Skipping malformed notification item", zap.Error(err))
			continue
		}
		event, err := s.fromItem(item)
		if err != nil {
			s.logger.Warn("Skipping unparseable notification item",
				zap.String("notificationID", item.NotificationID),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// GetPending returns up to batchSize notifications waiting for dispatch,
// oldest first.
func (s *NotificationStore) GetPending(ctx context.Context, batchSize int32) ([]*notification.Event, error) {
	keyExpr := expression.Key("GSI1PK").Equal(expression.Value(pendingNotificationPartition))

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.pendingIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(batchSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}

	events := make([]*notification.Event, 0, len(result.Items))
	for _, raw := range result.Items {
		var item notificationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Skipping malformed notification item", zap.Error(err))
			continue
		}
		event, err := s.fromItem(item)
		if err != nil {
			s.logger.Warn("Skipping unparseable notification item",
				zap.String("notificationID", item.NotificationID),
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// MarkDispatched marks a notification as successfully delivered and drops it
// out of the pending index.
func (s *NotificationStore) MarkDispatched(ctx context.Context, event *notification.Event) error {
	pk, sk := notificationKeys(event)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression: aws.String("SET #status = :dispatched, DispatchedAt = :at REMOVE GSI1PK, GSI1SK"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dispatched": &types.AttributeValueMemberS{Value: string(notification.StatusDispatched)},
			":at":         &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification %s dispatched: %w", event.ID, err)
	}

	return nil
}

// MarkDispatchFailed records a failed delivery attempt. The notification
// stays in the pending index until attempts exceed maxAttempts.
func (s *NotificationStore) MarkDispatchFailed(ctx context.Context, event *notification.Event, reason string, attempts, maxAttempts int) error {
	pk, sk := notificationKeys(event)

	update := "SET #status = :status, DispatchAttempts = :attempts, LastError = :reason"
	status := string(notification.StatusPending)
	if attempts >= maxAttempts {
		status = string(notification.StatusFailed)
		update += " REMOVE GSI1PK, GSI1SK"
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression: aws.String(update),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":   &types.AttributeValueMemberS{Value: status},
			":attempts": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", attempts)},
			":reason":   &types.AttributeValueMemberS{Value: reason},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification %s failed: %w", event.ID, err)
	}

	return nil
}
