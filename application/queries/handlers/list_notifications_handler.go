package handlers

import (
	"context"
	"fmt"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/application/queries"

	"go.uber.org/zap"
)

// ListNotificationsHandler handles notification listing queries
type ListNotificationsHandler struct {
	notifications ports.NotificationReader
	logger        *zap.Logger
}

// NewListNotificationsHandler creates a new list notifications handler
func NewListNotificationsHandler(notifications ports.NotificationReader, logger *zap.Logger) *ListNotificationsHandler {
	return &ListNotificationsHandler{
		notifications: notifications,
		logger:        logger,
	}
}

// Handle executes the list notifications query
func (h *ListNotificationsHandler) Handle(ctx context.Context, query queries.ListNotificationsQuery) (*queries.ListNotificationsResult, error) {
	limit := query.Limit
	if limit == 0 {
		limit = 50
	}

	events, err := h.notifications.FindByBorrower(ctx, query.BorrowerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := &queries.ListNotificationsResult{
		Notifications: make([]queries.NotificationView, 0, len(events)),
		Total:         len(events),
	}
	for _, event := range events {
		result.Notifications = append(result.Notifications, queries.NotificationView{
			ID:          event.ID,
			Title:       event.Title,
			Message:     event.Message,
			Severity:    string(event.Severity),
			ReferenceID: event.ReferenceID,
			CreatedAt:   event.CreatedAt,
		})
	}

	return result, nil
}
