package commands

import (
	"fmt"
	"time"
)

// ReturnLoanCommand closes an open loan. The return date is written exactly
// once; once closed, the loan permanently leaves the overdue sweep's scope.
type ReturnLoanCommand struct {
	LoanID     string
	BorrowerID string
	ReturnedAt time.Time
}

// Validate checks the command fields
func (c ReturnLoanCommand) Validate() error {
	if c.LoanID == "" {
		return fmt.Errorf("loan ID is required")
	}
	if c.BorrowerID == "" {
		return fmt.Errorf("borrower ID is required")
	}
	if c.ReturnedAt.IsZero() {
		return fmt.Errorf("return time is required")
	}
	return nil
}
