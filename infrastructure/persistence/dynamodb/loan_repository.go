package dynamodb

import (
	"context"
	"fmt"
	"time"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/domain/lending"
	appErrors "schoolhub-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const openLoanPartition = "LOAN#OPEN"

// LoanRepository implements ports.LoanRepository using DynamoDB single-table
// storage. Open loans carry GSI1 keys (due-date index) that are removed when
// the loan closes, so every sweep query is a straight index query and a
// closed loan can never re-enter a candidate set.
type LoanRepository struct {
	client       *dynamodb.Client
	tableName    string
	dueDateIndex string
	loanIndex    string
	logger       *zap.Logger
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(client *dynamodb.Client, tableName, dueDateIndex, loanIndex string, logger *zap.Logger) ports.LoanRepository {
	return &LoanRepository{
		client:       client,
		tableName:    tableName,
		dueDateIndex: dueDateIndex,
		loanIndex:    loanIndex,
		logger:       logger,
	}
}

// loanItem represents the DynamoDB item structure for a loan
type loanItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK,omitempty"` // Open-loan partition, removed on return
	GSI1SK       string `dynamodbav:"GSI1SK,omitempty"` // Due date, RFC3339 UTC
	GSI2PK       string `dynamodbav:"GSI2PK"`           // Direct lookup by loan ID
	GSI2SK       string `dynamodbav:"GSI2SK"`
	EntityType   string `dynamodbav:"EntityType"`
	LoanID       string `dynamodbav:"LoanID"`
	BorrowerID   string `dynamodbav:"BorrowerID"`
	ItemTitle    string `dynamodbav:"ItemTitle,omitempty"`
	CheckedOutAt string `dynamodbav:"CheckedOutAt"`
	DueDate      string `dynamodbav:"DueDate"`
	ReturnDate   string `dynamodbav:"ReturnDate,omitempty"`
	IsOverdue    bool   `dynamodbav:"IsOverdue"`
}

func (r *LoanRepository) toItem(loan *lending.LoanRecord) loanItem {
	item := loanItem{
		PK:           fmt.Sprintf("BORROWER#%s", loan.BorrowerID),
		SK:           fmt.Sprintf("LOAN#%s", loan.ID),
		GSI2PK:       fmt.Sprintf("LOAN#%s", loan.ID),
		GSI2SK:       "METADATA",
		EntityType:   "LOAN",
		LoanID:       loan.ID,
		BorrowerID:   loan.BorrowerID,
		ItemTitle:    loan.ItemTitle,
		CheckedOutAt: loan.CheckedOutAt.UTC().Format(time.RFC3339),
		DueDate:      loan.DueDate.UTC().Format(time.RFC3339),
		IsOverdue:    loan.IsOverdue,
	}

	if loan.ReturnDate != nil {
		item.ReturnDate = loan.ReturnDate.UTC().Format(time.RFC3339)
	} else {
		// Only open loans live in the due-date index.
		item.GSI1PK = openLoanPartition
		item.GSI1SK = item.DueDate
	}

	return item
}

func (r *LoanRepository) fromItem(item loanItem) (*lending.LoanRecord, error) {
	checkedOutAt, err := time.Parse(time.RFC3339, item.CheckedOutAt)
	if err != nil {
		return nil, fmt.Errorf("invalid checkout time on loan %s: %w", item.LoanID, err)
	}
	dueDate, err := time.Parse(time.RFC3339, item.DueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due date on loan %s: %w", item.LoanID, err)
	}

	loan := &lending.LoanRecord{
		ID:           item.LoanID,
		BorrowerID:   item.BorrowerID,
		ItemTitle:    item.ItemTitle,
		CheckedOutAt: checkedOutAt,
		DueDate:      dueDate,
		IsOverdue:    item.IsOverdue,
	}

	if item.ReturnDate != "" {
		returnDate, err := time.Parse(time.RFC3339, item.ReturnDate)
		if err != nil {
			return nil, fmt.Errorf("invalid return date on loan %s: %w", item.LoanID, err)
		}
		loan.ReturnDate = &returnDate
	}

	return loan, nil
}

// Save persists a loan record
func (r *LoanRepository) Save(ctx context.Context, loan *lending.LoanRecord) error {
	av, err := attributevalue.MarshalMap(r.toItem(loan))
	if err != nil {
		return fmt.Errorf("failed to marshal loan: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save loan %s: %w", loan.ID, err)
	}

	r.logger.Debug("Saved loan",
		zap.String("loanID", loan.ID),
		zap.String("borrowerID", loan.BorrowerID),
	)

	return nil
}

// GetByID retrieves a loan by its identifier via the loan-ID index
func (r *LoanRepository) GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error) {
	item, err := r.getItemByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return r.fromItem(*item)
}

func (r *LoanRepository) getItemByLoanID(ctx context.Context, loanID string) (*loanItem, error) {
	keyExpr := expression.Key("GSI2PK").Equal(expression.Value(fmt.Sprintf("LOAN#%s", loanID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.loanIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query loan %s: %w", loanID, err)
	}
	if len(result.Items) == 0 {
		return nil, appErrors.NewNotFoundError("loan")
	}

	var item loanItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal loan %s: %w", loanID, err)
	}

	return &item, nil
}

// FindByBorrower lists a borrower's loans
func (r *LoanRepository) FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("BORROWER#%s", borrowerID))).
		And(expression.Key("SK").BeginsWith("LOAN#"))
	filterExpr := expression.Name("EntityType").Equal(expression.Value("LOAN"))
	if !includeClosed {
		filterExpr = filterExpr.And(expression.Name("ReturnDate").AttributeNotExists())
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyExpr).
		WithFilter(filterExpr).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return r.queryLoans(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// FindOpenLoansOverdueBefore returns open loans past due that are not yet
// flagged overdue. The isOverdue=false predicate is evaluated here, against
// persisted state, which is what makes repeated and overlapping sweeps safe.
func (r *LoanRepository) FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error) {
	keyExpr := expression.Key("GSI1PK").Equal(expression.Value(openLoanPartition)).
		And(expression.Key("GSI1SK").LessThan(expression.Value(cutoff.UTC().Format(time.RFC3339))))
	filterExpr := expression.Name("IsOverdue").Equal(expression.Value(false))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyExpr).
		WithFilter(filterExpr).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return r.queryLoans(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.dueDateIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// FindOpenLoansDueInRange returns open loans due inside [start, end). The key
// condition bounds the upper edge; the lower edge filters on the duplicated
// DueDate attribute since the index sort key cannot appear in a filter.
func (r *LoanRepository) FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error) {
	keyExpr := expression.Key("GSI1PK").Equal(expression.Value(openLoanPartition)).
		And(expression.Key("GSI1SK").LessThan(expression.Value(end.UTC().Format(time.RFC3339))))
	filterExpr := expression.Name("DueDate").GreaterThanEqual(expression.Value(start.UTC().Format(time.RFC3339)))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyExpr).
		WithFilter(filterExpr).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return r.queryLoans(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.dueDateIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (r *LoanRepository) queryLoans(ctx context.Context, input *dynamodb.QueryInput) ([]*lending.LoanRecord, error) {
	var loans []*lending.LoanRecord

	// Handle pagination
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query loans: %w", err)
		}

		for _, raw := range result.Items {
			var item loanItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping malformed loan item", zap.Error(err))
				continue
			}
			loan, err := r.fromItem(item)
			if err != nil {
				r.logger.Warn("Skipping unparseable loan item",
					zap.String("loanID", item.LoanID),
					zap.Error(err),
				)
				continue
			}
			loans = append(loans, loan)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return loans, nil
}

// MarkOverdue sets the overdue flag on a loan. The write is an unconditional
// set, so two overlapping sweeps both writing true is harmless.
func (r *LoanRepository) MarkOverdue(ctx context.Context, loanID string) error {
	item, err := r.getItemByLoanID(ctx, loanID)
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
		UpdateExpression: aws.String("SET IsOverdue = :overdue"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":overdue": &types.AttributeValueMemberBOOL{Value: true},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("failed to mark loan %s overdue: %w", loanID, err)
	}

	return nil
}

// MarkReturned closes a loan, writing the return date exactly once and
// dropping the loan out of the open-loan index.
func (r *LoanRepository) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	item, err := r.getItemByLoanID(ctx, loanID)
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
		UpdateExpression: aws.String("SET ReturnDate = :returnedAt REMOVE GSI1PK, GSI1SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":returnedAt": &types.AttributeValueMemberS{Value: returnedAt.UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND attribute_not_exists(ReturnDate)"),
	})
	if err != nil {
		return fmt.Errorf("failed to mark loan %s returned: %w", loanID, err)
	}

	return nil
}
