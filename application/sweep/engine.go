package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/domain/lending"
	"schoolhub-backend/domain/notification"

	"go.uber.org/zap"
)

const (
	overdueTitle  = "Book Overdue"
	dueTodayTitle = "Book Due Today"
	dueSoonTitle  = "Book Due Soon"

	dueDateFormat = "January 2, 2006"
)

// RunSummary is the result of one sweep. It is produced fresh per run and
// carries no per-record detail so the trigger response stays small.
type RunSummary struct {
	CheckedAt    time.Time `json:"checkedAt"`
	NewlyOverdue int       `json:"newlyOverdue"`
	DueToday     int       `json:"dueToday"`
	DueSoon      int       `json:"dueSoon"`
}

// recordOutcome is the per-record success/failure result collected by a phase.
// Expected, recoverable per-record faults are values here, never panics or
// aborted runs; a failed record is picked up again by the next sweep.
type recordOutcome struct {
	LoanID string
	Err    error
}

// Engine executes the three-phase overdue sweep over open loans.
//
// The only de-duplication the engine relies on is persisted state: phase A
// selects on isOverdue=false, so a loan already transitioned by an earlier
// (or overlapping) run is never reprocessed. Phases B and C have no such
// guard and re-emit their reminders on every run inside the window.
type Engine struct {
	loans  ports.LoanRepository
	sink   ports.NotificationSink
	logger *zap.Logger
}

// NewEngine creates a sweep engine
func NewEngine(loans ports.LoanRepository, sink ports.NotificationSink, logger *zap.Logger) *Engine {
	return &Engine{
		loans:  loans,
		sink:   sink,
		logger: logger,
	}
}

// RunSweep executes one complete sweep relative to now and returns the run
// summary. It fails only when a phase cannot fetch its candidate set from the
// store; individual record failures are logged and skipped. Nothing written
// before a fatal failure is rolled back.
func (e *Engine) RunSweep(ctx context.Context, now time.Time) (RunSummary, error) {
	windows := lending.WindowsAt(now)

	e.logger.Info("Starting overdue sweep",
		zap.Time("checkedAt", now),
		zap.Time("today", windows.Today),
	)

	// The phases have no data dependency on each other, so they run
	// concurrently. Each record's (update, notify) pair is an independent
	// unit within its phase.
	var (
		wg                               sync.WaitGroup
		newlyOverdue, dueToday, dueSoon  int
		overdueErr, todayErr, dueSoonErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		newlyOverdue, overdueErr = e.sweepNewlyOverdue(ctx, windows.Today)
	}()
	go func() {
		defer wg.Done()
		dueToday, todayErr = e.sweepDueWindow(ctx, windows.DueToday, dueTodayTitle, e.dueTodayMessage)
	}()
	go func() {
		defer wg.Done()
		dueSoon, dueSoonErr = e.sweepDueWindow(ctx, windows.DueSoon, dueSoonTitle, e.dueSoonMessage)
	}()
	wg.Wait()

	for _, err := range []error{overdueErr, todayErr, dueSoonErr} {
		if err != nil {
			e.logger.Error("Sweep aborted", zap.Error(err))
			return RunSummary{}, err
		}
	}

	summary := RunSummary{
		CheckedAt:    now,
		NewlyOverdue: newlyOverdue,
		DueToday:     dueToday,
		DueSoon:      dueSoon,
	}

	e.logger.Info("Sweep completed",
		zap.Int("newlyOverdue", summary.NewlyOverdue),
		zap.Int("dueToday", summary.DueToday),
		zap.Int("dueSoon", summary.DueSoon),
	)

	return summary, nil
}

// sweepNewlyOverdue handles phase A: open loans past due that have not been
// marked overdue yet. Each matched loan gets the persisted overdue flag set,
// then a warning notification. A failure on either step is logged per record
// and never blocks the other records; the flag is not rolled back when only
// the notification fails.
func (e *Engine) sweepNewlyOverdue(ctx context.Context, today time.Time) (int, error) {
	loans, err := e.loans.FindOpenLoansOverdueBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("querying newly overdue loans: %w", err)
	}

	outcomes := make([]recordOutcome, 0, len(loans))
	for _, loan := range loans {
		outcomes = append(outcomes, recordOutcome{
			LoanID: loan.ID,
			Err:    e.transitionOverdue(ctx, loan),
		})
	}

	return e.countSuccesses("newly_overdue", outcomes), nil
}

// transitionOverdue is the per-record unit of phase A.
func (e *Engine) transitionOverdue(ctx context.Context, loan *lending.LoanRecord) error {
	if err := e.loans.MarkOverdue(ctx, loan.ID); err != nil {
		return fmt.Errorf("marking loan overdue: %w", err)
	}

	event := notification.NewEvent(
		loan.BorrowerID,
		overdueTitle,
		fmt.Sprintf("%q was due on %s and is now overdue. Please return it as soon as possible.",
			loan.DisplayTitle(), loan.DueDate.Format(dueDateFormat)),
		notification.SeverityWarning,
		loan.ID,
	)
	if err := e.sink.Notify(ctx, event); err != nil {
		// The overdue flag already persisted; the loan will not be selected
		// again, so the missed notification is logged rather than retried.
		e.logger.Error("Failed to record overdue notification",
			zap.String("loanID", loan.ID),
			zap.String("borrowerID", loan.BorrowerID),
			zap.Error(err),
		)
	}
	return nil
}

// sweepDueWindow handles phases B and C: open loans whose due date falls in
// the half-open window. No state is written and no de-duplication guard
// exists, so a second run on the same day re-emits the reminders.
func (e *Engine) sweepDueWindow(ctx context.Context, window lending.Window, title string, message func(*lending.LoanRecord) string) (int, error) {
	loans, err := e.loans.FindOpenLoansDueInRange(ctx, window.Start, window.End)
	if err != nil {
		return 0, fmt.Errorf("querying loans due in window starting %s: %w",
			window.Start.Format(time.RFC3339), err)
	}

	outcomes := make([]recordOutcome, 0, len(loans))
	for _, loan := range loans {
		event := notification.NewEvent(loan.BorrowerID, title, message(loan), notification.SeverityInfo, loan.ID)
		outcomes = append(outcomes, recordOutcome{
			LoanID: loan.ID,
			Err:    e.sink.Notify(ctx, event),
		})
	}

	return e.countSuccesses(title, outcomes), nil
}

func (e *Engine) dueTodayMessage(loan *lending.LoanRecord) string {
	return fmt.Sprintf("%q is due back today.", loan.DisplayTitle())
}

func (e *Engine) dueSoonMessage(loan *lending.LoanRecord) string {
	return fmt.Sprintf("%q is due back on %s.", loan.DisplayTitle(), loan.DueDate.Format(dueDateFormat))
}

// countSuccesses derives a phase's summary count from its per-record
// outcomes, logging every failed record with its identifier.
func (e *Engine) countSuccesses(phase string, outcomes []recordOutcome) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			e.logger.Error("Skipping loan after record-level failure",
				zap.String("phase", phase),
				zap.String("loanID", outcome.LoanID),
				zap.Error(outcome.Err),
			)
			continue
		}
		count++
	}
	return count
}
