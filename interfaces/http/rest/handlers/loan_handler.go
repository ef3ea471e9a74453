package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"schoolhub-backend/application/commands"
	"schoolhub-backend/application/commands/bus"
	"schoolhub-backend/application/queries"
	querybus "schoolhub-backend/application/queries/bus"
	"schoolhub-backend/pkg/auth"
	"schoolhub-backend/pkg/common"
	appErrors "schoolhub-backend/pkg/errors"
	"schoolhub-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *LoanHandler {
	return &LoanHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// CheckoutLoanRequest represents the request body for checking out an item
type CheckoutLoanRequest struct {
	ItemTitle string    `json:"itemTitle,omitempty" validate:"omitempty,max=300"`
	DueDate   time.Time `json:"dueDate" validate:"required"`
}

// CheckoutLoanResponse represents the response for checking out an item
type CheckoutLoanResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// CheckoutLoan handles POST /loans
func (h *LoanHandler) CheckoutLoan(w http.ResponseWriter, r *http.Request) {
	var req CheckoutLoanRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	loanID := uuid.New().String()

	cmd := commands.CheckoutLoanCommand{
		LoanID:     loanID,
		BorrowerID: userCtx.UserID,
		ItemTitle:  req.ItemTitle,
		DueDate:    req.DueDate,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to check out loan",
			zap.String("borrowerID", userCtx.UserID),
			zap.Error(err),
		)
		if appErrors.IsType(err, appErrors.ErrorTypeValidation) || strings.Contains(err.Error(), "validation") {
			h.respondError(w, http.StatusBadRequest, err.Error())
		} else {
			h.respondError(w, http.StatusInternalServerError, "Failed to check out loan")
		}
		return
	}

	response := CheckoutLoanResponse{
		ID:        loanID,
		Message:   "Loan checked out successfully",
		CreatedAt: utils.NowRFC3339(),
	}

	h.respondJSON(w, http.StatusCreated, response)
}

// ReturnLoan handles POST /loans/{loanID}/return
func (h *LoanHandler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	if loanID == "" {
		h.respondError(w, http.StatusBadRequest, "Loan ID is required")
		return
	}

	if _, err := uuid.Parse(loanID); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid loan ID format")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := commands.ReturnLoanCommand{
		LoanID:     loanID,
		BorrowerID: userCtx.UserID,
		ReturnedAt: time.Now(),
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to return loan",
			zap.String("loanID", loanID),
			zap.String("borrowerID", userCtx.UserID),
			zap.Error(err),
		)
		switch {
		case appErrors.IsType(err, appErrors.ErrorTypeNotFound):
			h.respondError(w, http.StatusNotFound, "Loan not found")
		case appErrors.IsType(err, appErrors.ErrorTypeConflict):
			h.respondError(w, http.StatusConflict, "Loan already returned")
		case appErrors.IsType(err, appErrors.ErrorTypeForbidden):
			h.respondError(w, http.StatusForbidden, "Loan belongs to another borrower")
		case appErrors.IsType(err, appErrors.ErrorTypeValidation):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, "Failed to return loan")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"id":      loanID,
		"message": "Loan returned successfully",
	})
}

// ListLoans handles GET /loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
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
	includeClosed := r.URL.Query().Get("includeClosed") == "true"

	query := queries.ListLoansQuery{
		BorrowerID:    userCtx.UserID,
		IncludeClosed: includeClosed,
		Limit:         limit,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list loans",
			zap.String("borrowerID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, "Failed to list loans")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Helper methods

func (h *LoanHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *LoanHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
