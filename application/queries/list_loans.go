package queries

import (
	"fmt"
	"time"
)

// ListLoansQuery lists a borrower's loans
type ListLoansQuery struct {
	BorrowerID    string
	IncludeClosed bool
	Limit         int
}

// Validate checks the query parameters
func (q ListLoansQuery) Validate() error {
	if q.BorrowerID == "" {
		return fmt.Errorf("borrower ID is required")
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// LoanView is the read model returned for one loan
type LoanView struct {
	ID           string     `json:"id"`
	BorrowerID   string     `json:"borrowerId"`
	ItemTitle    string     `json:"itemTitle"`
	CheckedOutAt time.Time  `json:"checkedOutAt"`
	DueDate      time.Time  `json:"dueDate"`
	ReturnDate   *time.Time `json:"returnDate,omitempty"`
	IsOverdue    bool       `json:"isOverdue"`
}

// ListLoansResult is the response for ListLoansQuery
type ListLoansResult struct {
	Loans []LoanView `json:"loans"`
	Total int        `json:"total"`
}
