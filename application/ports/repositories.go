package ports

import (
	"context"
	"time"

	"schoolhub-backend/domain/events"
	"schoolhub-backend/domain/lending"
	"schoolhub-backend/domain/notification"
)

// LoanRepository provides access to persisted loan records.
//
// The three sweep-facing methods express the engine's de-duplication guard as
// query predicates against persisted state, so overlapping sweep runs stay
// correct without any in-memory coordination.
type LoanRepository interface {
	// Save persists a new loan record
	Save(ctx context.Context, loan *lending.LoanRecord) error

	// GetByID retrieves a loan by its identifier
	GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error)

	// FindByBorrower lists a borrower's loans, optionally including closed ones
	FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error)

	// FindOpenLoansOverdueBefore returns open loans with dueDate < cutoff that
	// have not been marked overdue yet (returnDate null, isOverdue false)
	FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error)

	// FindOpenLoansDueInRange returns open loans with dueDate in the half-open
	// range [start, end)
	FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error)

	// MarkOverdue sets the overdue flag on a loan. The write is an idempotent
	// set: marking an already-overdue loan is a no-op, not an error.
	MarkOverdue(ctx context.Context, loanID string) error

	// MarkReturned closes a loan. The return date is written at most once;
	// returning an already-closed loan is an error.
	MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error
}

// NotificationSink records an outbound borrower notification. Delivery is
// someone else's problem; the producer treats this as fire-and-forget.
type NotificationSink interface {
	Notify(ctx context.Context, event *notification.Event) error
}

// NotificationReader lists recorded notifications for API consumers.
type NotificationReader interface {
	FindByBorrower(ctx context.Context, borrowerID string, limit int) ([]*notification.Event, error)
}

// EventBus publishes domain events to external consumers
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
