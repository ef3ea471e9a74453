package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoanRecord(t *testing.T) {
	checkedOut := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	due := checkedOut.AddDate(0, 0, 14)

	loan, err := NewLoanRecord("borrower-1", "The Go Programming Language", checkedOut, due)
	require.NoError(t, err)

	assert.NotEmpty(t, loan.ID)
	assert.True(t, loan.Open())
	assert.False(t, loan.IsOverdue)
	assert.Equal(t, due, loan.DueDate)
}

func TestNewLoanRecordRejectsInvalidInput(t *testing.T) {
	now := time.Now()

	_, err := NewLoanRecord("", "Title", now, now.AddDate(0, 0, 7))
	assert.Error(t, err)

	_, err = NewLoanRecord("borrower-1", "Title", now, now.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestDisplayTitleFallsBack(t *testing.T) {
	loan := &LoanRecord{ID: "loan-1", BorrowerID: "borrower-1"}
	assert.Equal(t, FallbackItemTitle, loan.DisplayTitle())

	loan.ItemTitle = "Clean Architecture"
	assert.Equal(t, "Clean Architecture", loan.DisplayTitle())
}

func TestMarkOverdueIsMonotonic(t *testing.T) {
	loan := &LoanRecord{ID: "loan-1", BorrowerID: "borrower-1"}

	assert.True(t, loan.MarkOverdue())
	assert.True(t, loan.IsOverdue)

	// Second call is a no-op, not an error.
	assert.False(t, loan.MarkOverdue())
	assert.True(t, loan.IsOverdue)
}

func TestReturnSetsReturnDateExactlyOnce(t *testing.T) {
	loan := &LoanRecord{ID: "loan-1", BorrowerID: "borrower-1"}
	returnedAt := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, loan.Return(returnedAt))
	assert.False(t, loan.Open())
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, returnedAt, *loan.ReturnDate)

	assert.Error(t, loan.Return(returnedAt.Add(time.Hour)))
	assert.Equal(t, returnedAt, *loan.ReturnDate)
}
