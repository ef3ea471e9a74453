package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"schoolhub-backend/application/commands"
	"schoolhub-backend/domain/events"
	"schoolhub-backend/domain/lending"
	appErrors "schoolhub-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryLoanRepo struct {
	loans   map[string]*lending.LoanRecord
	saveErr error
}

func newMemoryLoanRepo() *memoryLoanRepo {
	return &memoryLoanRepo{loans: make(map[string]*lending.LoanRecord)}
}

func (r *memoryLoanRepo) Save(ctx context.Context, loan *lending.LoanRecord) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.loans[loan.ID] = loan
	return nil
}

func (r *memoryLoanRepo) GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error) {
	loan, ok := r.loans[loanID]
	if !ok {
		return nil, appErrors.NewNotFoundError("loan")
	}
	return loan, nil
}

func (r *memoryLoanRepo) FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error) {
	var out []*lending.LoanRecord
	for _, loan := range r.loans {
		if loan.BorrowerID != borrowerID {
			continue
		}
		if !includeClosed && !loan.Open() {
			continue
		}
		out = append(out, loan)
	}
	return out, nil
}

func (r *memoryLoanRepo) FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error) {
	return nil, nil
}

func (r *memoryLoanRepo) FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error) {
	return nil, nil
}

func (r *memoryLoanRepo) MarkOverdue(ctx context.Context, loanID string) error {
	if loan, ok := r.loans[loanID]; ok {
		loan.MarkOverdue()
	}
	return nil
}

func (r *memoryLoanRepo) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	loan, ok := r.loans[loanID]
	if !ok {
		return appErrors.NewNotFoundError("loan")
	}
	return loan.Return(returnedAt)
}

type memoryEventBus struct {
	published []events.DomainEvent
	err       error
}

func (b *memoryEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, event)
	return nil
}

func (b *memoryEventBus) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func TestCheckoutLoanPersistsAndPublishes(t *testing.T) {
	repo := newMemoryLoanRepo()
	eventBus := &memoryEventBus{}
	handler := NewCheckoutLoanHandler(repo, eventBus, zap.NewNop())

	dueDate := time.Now().AddDate(0, 0, 14)
	cmd := commands.CheckoutLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
		ItemTitle:  "The Go Programming Language",
		DueDate:    dueDate,
	}

	require.NoError(t, handler.Handle(context.Background(), cmd))

	loan, err := repo.GetByID(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, "borrower-1", loan.BorrowerID)
	assert.True(t, loan.Open())
	assert.False(t, loan.IsOverdue)
	assert.True(t, loan.DueDate.Equal(dueDate))

	require.Len(t, eventBus.published, 1)
	assert.Equal(t, "loan.checked_out", eventBus.published[0].GetEventType())
}

func TestCheckoutLoanRejectsMissingDueDate(t *testing.T) {
	handler := NewCheckoutLoanHandler(newMemoryLoanRepo(), &memoryEventBus{}, zap.NewNop())

	cmd := commands.CheckoutLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
	}

	err := handler.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeValidation))
}

func TestCheckoutLoanSucceedsWhenEventBusIsDown(t *testing.T) {
	repo := newMemoryLoanRepo()
	eventBus := &memoryEventBus{err: errors.New("bus offline")}
	handler := NewCheckoutLoanHandler(repo, eventBus, zap.NewNop())

	cmd := commands.CheckoutLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
		DueDate:    time.Now().AddDate(0, 0, 7),
	}

	require.NoError(t, handler.Handle(context.Background(), cmd))
	assert.Contains(t, repo.loans, "loan-1")
}

func TestReturnLoanClosesLoanOnce(t *testing.T) {
	repo := newMemoryLoanRepo()
	eventBus := &memoryEventBus{}

	checkout := NewCheckoutLoanHandler(repo, eventBus, zap.NewNop())
	require.NoError(t, checkout.Handle(context.Background(), commands.CheckoutLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
		ItemTitle:  "Clean Architecture",
		DueDate:    time.Now().AddDate(0, 0, 7),
	}))

	handler := NewReturnLoanHandler(repo, eventBus, zap.NewNop())
	cmd := commands.ReturnLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
		ReturnedAt: time.Now(),
	}

	require.NoError(t, handler.Handle(context.Background(), cmd))

	loan, err := repo.GetByID(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.False(t, loan.Open())

	err = handler.Handle(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeConflict))
}

func TestReturnLoanRejectsOtherBorrower(t *testing.T) {
	repo := newMemoryLoanRepo()
	eventBus := &memoryEventBus{}

	checkout := NewCheckoutLoanHandler(repo, eventBus, zap.NewNop())
	require.NoError(t, checkout.Handle(context.Background(), commands.CheckoutLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-1",
		DueDate:    time.Now().AddDate(0, 0, 7),
	}))

	handler := NewReturnLoanHandler(repo, eventBus, zap.NewNop())
	err := handler.Handle(context.Background(), commands.ReturnLoanCommand{
		LoanID:     "loan-1",
		BorrowerID: "borrower-2",
		ReturnedAt: time.Now(),
	})

	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeForbidden))
}

func TestReturnLoanUnknownLoan(t *testing.T) {
	handler := NewReturnLoanHandler(newMemoryLoanRepo(), &memoryEventBus{}, zap.NewNop())

	err := handler.Handle(context.Background(), commands.ReturnLoanCommand{
		LoanID:     "missing",
		BorrowerID: "borrower-1",
		ReturnedAt: time.Now(),
	})

	require.Error(t, err)
	assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeNotFound))
}
