package sweep

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"schoolhub-backend/domain/lending"
	"schoolhub-backend/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLoanRepository keeps loans in memory and answers the sweep queries with
// the same predicates the real store evaluates.
type fakeLoanRepository struct {
	mu          sync.Mutex
	loans       map[string]*lending.LoanRecord
	queryErr    error
	markErrFor  map[string]error
	markedCalls []string
}

func newFakeLoanRepository(loans ...*lending.LoanRecord) *fakeLoanRepository {
	repo := &fakeLoanRepository{
		loans:      make(map[string]*lending.LoanRecord),
		markErrFor: make(map[string]error),
	}
	for _, loan := range loans {
		repo.loans[loan.ID] = loan
	}
	return repo
}

func (r *fakeLoanRepository) Save(ctx context.Context, loan *lending.LoanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.ID] = loan
	return nil
}

func (r *fakeLoanRepository) GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s not found", loanID)
	}
	return loan, nil
}

func (r *fakeLoanRepository) FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*lending.LoanRecord
	for _, loan := range r.loans {
		if loan.BorrowerID != borrowerID {
			continue
		}
		if !includeClosed && !loan.Open() {
			continue
		}
		result = append(result, loan)
	}
	return result, nil
}

func (r *fakeLoanRepository) FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var result []*lending.LoanRecord
	for _, loan := range r.loans {
		if loan.Open() && !loan.IsOverdue && loan.DueDate.Before(cutoff) {
			result = append(result, loan)
		}
	}
	return result, nil
}

func (r *fakeLoanRepository) FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	var result []*lending.LoanRecord
	for _, loan := range r.loans {
		if loan.Open() && !loan.DueDate.Before(start) && loan.DueDate.Before(end) {
			result = append(result, loan)
		}
	}
	return result, nil
}

func (r *fakeLoanRepository) MarkOverdue(ctx context.Context, loanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.markErrFor[loanID]; err != nil {
		return err
	}
	r.markedCalls = append(r.markedCalls, loanID)
	if loan, ok := r.loans[loanID]; ok {
		loan.MarkOverdue()
	}
	return nil
}

func (r *fakeLoanRepository) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[loanID]
	if !ok {
		return fmt.Errorf("loan %s not found", loanID)
	}
	return loan.Return(returnedAt)
}

// fakeNotificationSink records notifications and can fail for chosen loans.
type fakeNotificationSink struct {
	mu       sync.Mutex
	events   []*notification.Event
	errFor   map[string]error
}

func newFakeNotificationSink() *fakeNotificationSink {
	return &fakeNotificationSink{errFor: make(map[string]error)}
}

func (s *fakeNotificationSink) Notify(ctx context.Context, event *notification.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errFor[event.ReferenceID]; err != nil {
		return err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *fakeNotificationSink) forLoan(loanID string) []*notification.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*notification.Event
	for _, event := range s.events {
		if event.ReferenceID == loanID {
			result = append(result, event)
		}
	}
	return result
}

func openLoan(id, borrowerID, title string, dueDate time.Time) *lending.LoanRecord {
	return &lending.LoanRecord{
		ID:           id,
		BorrowerID:   borrowerID,
		ItemTitle:    title,
		CheckedOutAt: dueDate.AddDate(0, 0, -14),
		DueDate:      dueDate,
	}
}

var sweepNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestRunSweepClassifiesThreeWindows(t *testing.T) {
	loanA := openLoan("loan-a", "borrower-1", "A Tale of Two Cities", day(-1))
	loanB := openLoan("loan-b", "borrower-2", "Brave New World", day(0))
	loanC := openLoan("loan-c", "borrower-3", "Catch-22", day(3))

	repo := newFakeLoanRepository(loanA, loanB, loanC)
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	summary, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, sweepNow, summary.CheckedAt)
	assert.Equal(t, 1, summary.NewlyOverdue)
	assert.Equal(t, 1, summary.DueToday)
	assert.Equal(t, 1, summary.DueSoon)

	assert.True(t, loanA.IsOverdue, "loan A should have transitioned to overdue")
	assert.False(t, loanB.IsOverdue)
	assert.False(t, loanC.IsOverdue)

	eventsA := sink.forLoan("loan-a")
	require.Len(t, eventsA, 1)
	assert.Equal(t, "Book Overdue", eventsA[0].Title)
	assert.Equal(t, notification.SeverityWarning, eventsA[0].Severity)
	assert.Equal(t, "borrower-1", eventsA[0].BorrowerID)

	eventsB := sink.forLoan("loan-b")
	require.Len(t, eventsB, 1)
	assert.Equal(t, "Book Due Today", eventsB[0].Title)
	assert.Equal(t, notification.SeverityInfo, eventsB[0].Severity)

	eventsC := sink.forLoan("loan-c")
	require.Len(t, eventsC, 1)
	assert.Equal(t, "Book Due Soon", eventsC[0].Title)
	assert.Equal(t, notification.SeverityInfo, eventsC[0].Severity)
	assert.Contains(t, eventsC[0].Message, "March 13, 2024")
}

func TestRunSweepOverdueTransitionIsIdempotent(t *testing.T) {
	repo := newFakeLoanRepository(
		openLoan("loan-1", "borrower-1", "Dune", day(-2)),
		openLoan("loan-2", "borrower-2", "Emma", day(-30)),
	)
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	first, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewlyOverdue)

	// A second run against the unchanged records selects nothing: the
	// persisted isOverdue flag is the guard.
	second, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewlyOverdue)

	assert.Len(t, sink.forLoan("loan-1"), 1, "exactly one overdue notification per loan")
	assert.Len(t, sink.forLoan("loan-2"), 1)
}

func TestRunSweepExcludesClosedLoans(t *testing.T) {
	returned := openLoan("loan-closed", "borrower-1", "Frankenstein", day(-10))
	require.NoError(t, returned.Return(day(-5)))

	repo := newFakeLoanRepository(returned)
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	summary, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.NewlyOverdue)
	assert.Equal(t, 0, summary.DueToday)
	assert.Equal(t, 0, summary.DueSoon)
	assert.Empty(t, sink.events)
	assert.False(t, returned.IsOverdue)
}

func TestRunSweepIsolatesRecordFailures(t *testing.T) {
	loanX := openLoan("loan-x", "borrower-1", "Hamlet", day(0))
	loanY := openLoan("loan-y", "borrower-2", "Iliad", day(0))
	loanZ := openLoan("loan-z", "borrower-3", "Jane Eyre", day(0))

	repo := newFakeLoanRepository(loanX, loanY, loanZ)
	sink := newFakeNotificationSink()
	sink.errFor["loan-x"] = fmt.Errorf("sink unavailable")
	engine := NewEngine(repo, sink, zap.NewNop())

	summary, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err, "a record-level failure must not abort the run")

	assert.Equal(t, 2, summary.DueToday)
	assert.Equal(t, 0, summary.NewlyOverdue)
	assert.Equal(t, 0, summary.DueSoon)
	assert.Empty(t, sink.forLoan("loan-x"))
	assert.Len(t, sink.forLoan("loan-y"), 1)
	assert.Len(t, sink.forLoan("loan-z"), 1)
}

func TestRunSweepSkipsLoanWhenOverdueMarkFails(t *testing.T) {
	failing := openLoan("loan-fail", "borrower-1", "King Lear", day(-1))
	healthy := openLoan("loan-ok", "borrower-2", "Lolita", day(-1))

	repo := newFakeLoanRepository(failing, healthy)
	repo.markErrFor["loan-fail"] = fmt.Errorf("conditional write failed")
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	summary, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.NewlyOverdue)
	assert.Empty(t, sink.forLoan("loan-fail"), "no notification without the persisted transition")
	assert.Len(t, sink.forLoan("loan-ok"), 1)

	// The flag was never set, so the next run naturally re-selects the loan.
	assert.False(t, failing.IsOverdue)
}

func TestRunSweepFallsBackOnMissingTitle(t *testing.T) {
	repo := newFakeLoanRepository(openLoan("loan-untitled", "borrower-1", "", day(0)))
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	_, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	events := sink.forLoan("loan-untitled")
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, lending.FallbackItemTitle)
}

func TestRunSweepFailsWhenStoreIsUnreachable(t *testing.T) {
	repo := newFakeLoanRepository(openLoan("loan-1", "borrower-1", "Moby-Dick", day(-1)))
	repo.queryErr = fmt.Errorf("connection refused")
	engine := NewEngine(repo, newFakeNotificationSink(), zap.NewNop())

	summary, err := engine.RunSweep(context.Background(), sweepNow)

	require.Error(t, err)
	assert.Equal(t, RunSummary{}, summary, "no partial summary on a fatal failure")
}

func TestRunSweepReEmitsReminderWithinSameDay(t *testing.T) {
	repo := newFakeLoanRepository(openLoan("loan-b", "borrower-1", "Nostromo", day(0)))
	sink := newFakeNotificationSink()
	engine := NewEngine(repo, sink, zap.NewNop())

	_, err := engine.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	_, err = engine.RunSweep(context.Background(), sweepNow.Add(2*time.Hour))
	require.NoError(t, err)

	// Phases B and C carry no de-duplication guard: two triggers on the same
	// day produce two reminders.
	assert.Len(t, sink.forLoan("loan-b"), 2)
}
