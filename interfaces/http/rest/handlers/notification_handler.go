package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"schoolhub-backend/application/queries"
	querybus "schoolhub-backend/application/queries/bus"
	"schoolhub-backend/pkg/auth"

	"go.uber.org/zap"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// ListNotifications handles GET /notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}

	query := queries.ListNotificationsQuery{
		BorrowerID: userCtx.UserID,
		Limit:      limit,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list notifications",
			zap.String("borrowerID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *NotificationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *NotificationHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
