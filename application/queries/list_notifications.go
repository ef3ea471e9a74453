package queries

import (
	"fmt"
	"time"
)

// ListNotificationsQuery lists recorded notifications for a borrower
type ListNotificationsQuery struct {
	BorrowerID string
	Limit      int
}

// Validate checks the query parameters
func (q ListNotificationsQuery) Validate() error {
	if q.BorrowerID == "" {
		return fmt.Errorf("borrower ID is required")
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// NotificationView is the read model returned for one notification
type NotificationView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListNotificationsResult is the response for ListNotificationsQuery
type ListNotificationsResult struct {
	Notifications []NotificationView `json:"notifications"`
	Total         int                `json:"total"`
}
