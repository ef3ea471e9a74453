package notification

import (
	"time"

	"github.com/google/uuid"
)

// Severity indicates how urgent a notification is for the borrower.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Status tracks delivery by the downstream dispatcher. The sweep engine only
// records events; it never advances their status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusFailed     Status = "failed"
)

// Event is one reminder or alert produced for a borrower. Events are created
// once and never mutated by their producer; only the dispatcher updates the
// delivery bookkeeping fields.
type Event struct {
	ID          string
	BorrowerID  string
	Title       string
	Message     string
	Severity    Severity
	ReferenceID string
	CreatedAt   time.Time

	Status           Status
	DispatchAttempts int
	LastError        string
}

// NewEvent creates a pending notification referencing a loan.
func NewEvent(borrowerID, title, message string, severity Severity, referenceID string) *Event {
	return &Event{
		ID:          uuid.New().String(),
		BorrowerID:  borrowerID,
		Title:       title,
		Message:     message,
		Severity:    severity,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
		Status:      StatusPending,
	}
}
