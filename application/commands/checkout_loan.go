package commands

import (
	"fmt"
	"time"
)

// CheckoutLoanCommand creates an open loan for a borrower. The due date is
// fixed at checkout and never changes afterwards.
type CheckoutLoanCommand struct {
	LoanID     string
	BorrowerID string
	ItemTitle  string
	DueDate    time.Time
}

// Validate checks the command fields
func (c CheckoutLoanCommand) Validate() error {
	if c.LoanID == "" {
		return fmt.Errorf("loan ID is required")
	}
	if c.BorrowerID == "" {
		return fmt.Errorf("borrower ID is required")
	}
	if c.DueDate.IsZero() {
		return fmt.Errorf("due date is required")
	}
	return nil
}
