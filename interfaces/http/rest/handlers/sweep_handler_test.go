package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolhub-backend/application/sweep"
	"schoolhub-backend/domain/lending"
	"schoolhub-backend/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLoanStore struct {
	loans    []*lending.LoanRecord
	queryErr error
}

func (s *stubLoanStore) Save(ctx context.Context, loan *lending.LoanRecord) error { return nil }

func (s *stubLoanStore) GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error) {
	return nil, errors.New("not found")
}

func (s *stubLoanStore) FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error) {
	return nil, nil
}

func (s *stubLoanStore) FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []*lending.LoanRecord
	for _, loan := range s.loans {
		if loan.Open() && !loan.IsOverdue && loan.DueDate.Before(cutoff) {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (s *stubLoanStore) FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []*lending.LoanRecord
	for _, loan := range s.loans {
		if loan.Open() && !loan.DueDate.Before(start) && loan.DueDate.Before(end) {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (s *stubLoanStore) MarkOverdue(ctx context.Context, loanID string) error {
	for _, loan := range s.loans {
		if loan.ID == loanID {
			loan.MarkOverdue()
		}
	}
	return nil
}

func (s *stubLoanStore) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	return nil
}

type stubSink struct {
	events []*notification.Event
}

func (s *stubSink) Notify(ctx context.Context, event *notification.Event) error {
	s.events = append(s.events, event)
	return nil
}

func newTestLoan(t *testing.T, borrowerID string, dueDate time.Time) *lending.LoanRecord {
	t.Helper()
	loan, err := lending.NewLoanRecord(borrowerID, "Test Book", dueDate.AddDate(0, 0, -14), dueDate)
	require.NoError(t, err)
	return loan
}

func TestRunSweepReturnsSummary(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	store := &stubLoanStore{
		loans: []*lending.LoanRecord{
			newTestLoan(t, "borrower-1", now.AddDate(0, 0, -2)),
			newTestLoan(t, "borrower-2", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)),
			newTestLoan(t, "borrower-3", time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)),
		},
	}
	sink := &stubSink{}

	engine := sweep.NewEngine(store, sink, zap.NewNop())
	handler := NewSweepHandler(engine, nil, nil, nil, zap.NewNop())
	handler.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/sweep", nil)
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var summary sweep.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.CheckedAt.Equal(now))
	assert.Equal(t, 1, summary.NewlyOverdue)
	assert.Equal(t, 1, summary.DueToday)
	assert.Equal(t, 1, summary.DueSoon)

	assert.Len(t, sink.events, 3)
}

func TestRunSweepReportsStoreFailure(t *testing.T) {
	store := &stubLoanStore{queryErr: errors.New("table unavailable")}
	engine := sweep.NewEngine(store, &stubSink{}, zap.NewNop())
	handler := NewSweepHandler(engine, nil, nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/sweep", nil)
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "table unavailable")
	assert.Len(t, body, 1)
}
