package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Loan Events

// LoanCheckedOut is raised when an item is checked out to a borrower
type LoanCheckedOut struct {
	BaseEvent
	LoanID     string    `json:"loan_id"`
	BorrowerID string    `json:"borrower_id"`
	ItemTitle  string    `json:"item_title"`
	DueDate    time.Time `json:"due_date"`
}

// NewLoanCheckedOut creates a LoanCheckedOut event
func NewLoanCheckedOut(loanID, borrowerID, itemTitle string, dueDate, timestamp time.Time) LoanCheckedOut {
	return LoanCheckedOut{
		BaseEvent: BaseEvent{
			AggregateID: loanID,
			EventType:   "loan.checked_out",
			Timestamp:   timestamp,
			Version:     1,
		},
		LoanID:     loanID,
		BorrowerID: borrowerID,
		ItemTitle:  itemTitle,
		DueDate:    dueDate,
	}
}

// LoanReturned is raised when a borrower returns an item and the loan closes
type LoanReturned struct {
	BaseEvent
	LoanID     string    `json:"loan_id"`
	BorrowerID string    `json:"borrower_id"`
	ReturnedAt time.Time `json:"returned_at"`
	WasOverdue bool      `json:"was_overdue"`
}

// NewLoanReturned creates a LoanReturned event
func NewLoanReturned(loanID, borrowerID string, returnedAt time.Time, wasOverdue bool) LoanReturned {
	return LoanReturned{
		BaseEvent: BaseEvent{
			AggregateID: loanID,
			EventType:   "loan.returned",
			Timestamp:   returnedAt,
			Version:     1,
		},
		LoanID:     loanID,
		BorrowerID: borrowerID,
		ReturnedAt: returnedAt,
		WasOverdue: wasOverdue,
	}
}

// LoanMarkedOverdue is raised when the sweep transitions an open loan to overdue
type LoanMarkedOverdue struct {
	BaseEvent
	LoanID     string    `json:"loan_id"`
	BorrowerID string    `json:"borrower_id"`
	DueDate    time.Time `json:"due_date"`
}

// NewLoanMarkedOverdue creates a LoanMarkedOverdue event
func NewLoanMarkedOverdue(loanID, borrowerID string, dueDate, timestamp time.Time) LoanMarkedOverdue {
	return LoanMarkedOverdue{
		BaseEvent: BaseEvent{
			AggregateID: loanID,
			EventType:   "loan.marked_overdue",
			Timestamp:   timestamp,
			Version:     1,
		},
		LoanID:     loanID,
		BorrowerID: borrowerID,
		DueDate:    dueDate,
	}
}

// Notification Events

// NotificationQueued is raised when a borrower notification was recorded and
// is waiting for the dispatcher
type NotificationQueued struct {
	BaseEvent
	NotificationID string `json:"notification_id"`
	BorrowerID     string `json:"borrower_id"`
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	ReferenceID    string `json:"reference_id"`
}

// NewNotificationQueued creates a NotificationQueued event
func NewNotificationQueued(notificationID, borrowerID, title, severity, referenceID string, timestamp time.Time) NotificationQueued {
	return NotificationQueued{
		BaseEvent: BaseEvent{
			AggregateID: notificationID,
			EventType:   "notification.queued",
			Timestamp:   timestamp,
			Version:     1,
		},
		NotificationID: notificationID,
		BorrowerID:     borrowerID,
		Title:          title,
		Severity:       severity,
		ReferenceID:    referenceID,
	}
}

// Sweep Events

// SweepCompleted is raised after one full run of the overdue sweep
type SweepCompleted struct {
	BaseEvent
	CheckedAt    time.Time `json:"checked_at"`
	NewlyOverdue int       `json:"newly_overdue"`
	DueToday     int       `json:"due_today"`
	DueSoon      int       `json:"due_soon"`
}

// NewSweepCompleted creates a SweepCompleted event
func NewSweepCompleted(checkedAt time.Time, newlyOverdue, dueToday, dueSoon int) SweepCompleted {
	return SweepCompleted{
		BaseEvent: BaseEvent{
			AggregateID: "sweep",
			EventType:   "sweep.completed",
			Timestamp:   checkedAt,
			Version:     1,
		},
		CheckedAt:    checkedAt,
		NewlyOverdue: newlyOverdue,
		DueToday:     dueToday,
		DueSoon:      dueSoon,
	}
}
