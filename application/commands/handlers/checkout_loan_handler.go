package handlers

import (
	"context"
	"time"

	"schoolhub-backend/application/commands"
	"schoolhub-backend/application/ports"
	"schoolhub-backend/domain/events"
	"schoolhub-backend/domain/lending"
	appErrors "schoolhub-backend/pkg/errors"

	"go.uber.org/zap"
)

// CheckoutLoanHandler handles loan checkout commands
type CheckoutLoanHandler struct {
	loanRepo ports.LoanRepository
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewCheckoutLoanHandler creates a new checkout loan handler
func NewCheckoutLoanHandler(
	loanRepo ports.LoanRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *CheckoutLoanHandler {
	return &CheckoutLoanHandler{
		loanRepo: loanRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Handle executes the checkout loan command
func (h *CheckoutLoanHandler) Handle(ctx context.Context, cmd commands.CheckoutLoanCommand) error {
	if err := cmd.Validate(); err != nil {
		return appErrors.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	loan, err := lending.NewLoanRecord(cmd.BorrowerID, cmd.ItemTitle, now, cmd.DueDate)
	if err != nil {
		return appErrors.NewValidationError(err.Error())
	}
	loan.ID = cmd.LoanID

	if err := h.loanRepo.Save(ctx, loan); err != nil {
		return appErrors.NewDatabaseError("save loan", err)
	}

	event := events.NewLoanCheckedOut(loan.ID, loan.BorrowerID, loan.ItemTitle, loan.DueDate, now)
	if err := h.eventBus.Publish(ctx, event); err != nil {
		// The loan persisted; event delivery is best effort.
		h.logger.Warn("Failed to publish checkout event",
			zap.String("loanID", loan.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Loan checked out",
		zap.String("loanID", loan.ID),
		zap.String("borrowerID", loan.BorrowerID),
		zap.Time("dueDate", loan.DueDate),
	)

	return nil
}
