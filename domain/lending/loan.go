package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FallbackItemTitle is used when a loan was stored without a joined item title.
const FallbackItemTitle = "Unknown Book"

// LoanRecord represents one borrow of a library item by a borrower.
// A loan is open while ReturnDate is nil; a returned loan is closed and is
// never reconsidered by the overdue sweep.
type LoanRecord struct {
	ID           string
	BorrowerID   string
	ItemTitle    string
	CheckedOutAt time.Time
	DueDate      time.Time
	ReturnDate   *time.Time
	IsOverdue    bool
}

// NewLoanRecord creates an open loan for a borrower.
func NewLoanRecord(borrowerID, itemTitle string, checkedOutAt, dueDate time.Time) (*LoanRecord, error) {
	if borrowerID == "" {
		return nil, fmt.Errorf("borrower ID is required")
	}
	if dueDate.Before(checkedOutAt) {
		return nil, fmt.Errorf("due date %s is before checkout time %s",
			dueDate.Format(time.RFC3339), checkedOutAt.Format(time.RFC3339))
	}

	return &LoanRecord{
		ID:           uuid.New().String(),
		BorrowerID:   borrowerID,
		ItemTitle:    itemTitle,
		CheckedOutAt: checkedOutAt,
		DueDate:      dueDate,
	}, nil
}

// Open reports whether the loan has not been returned yet.
func (l *LoanRecord) Open() bool {
	return l.ReturnDate == nil
}

// DisplayTitle returns the item title, substituting a fixed placeholder when
// the title was not recorded at checkout.
func (l *LoanRecord) DisplayTitle() string {
	if l.ItemTitle == "" {
		return FallbackItemTitle
	}
	return l.ItemTitle
}

// MarkOverdue flips the overdue flag. The transition is monotonic: once set it
// is never cleared by the sweep, and setting it again is a no-op. It returns
// whether the call changed the record.
func (l *LoanRecord) MarkOverdue() bool {
	if l.IsOverdue {
		return false
	}
	l.IsOverdue = true
	return true
}

// Return closes the loan. The return date is set exactly once; returning an
// already-closed loan is an error.
func (l *LoanRecord) Return(at time.Time) error {
	if l.ReturnDate != nil {
		return fmt.Errorf("loan %s was already returned at %s", l.ID, l.ReturnDate.Format(time.RFC3339))
	}
	returned := at
	l.ReturnDate = &returned
	return nil
}
