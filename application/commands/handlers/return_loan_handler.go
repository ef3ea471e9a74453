package handlers

import (
	"context"
	"fmt"

	"schoolhub-backend/application/commands"
	"schoolhub-backend/application/ports"
	"schoolhub-backend/domain/events"
	appErrors "schoolhub-backend/pkg/errors"

	"go.uber.org/zap"
)

// ReturnLoanHandler handles loan return commands
type ReturnLoanHandler struct {
	loanRepo ports.LoanRepository
	eventBus ports.EventBus
	logger   *zap.Logger
}

// NewReturnLoanHandler creates a new return loan handler
func NewReturnLoanHandler(
	loanRepo ports.LoanRepository,
	eventBus ports.EventBus,
	logger *zap.Logger,
) *ReturnLoanHandler {
	return &ReturnLoanHandler{
		loanRepo: loanRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Handle executes the return loan command
func (h *ReturnLoanHandler) Handle(ctx context.Context, cmd commands.ReturnLoanCommand) error {
	if err := cmd.Validate(); err != nil {
		return appErrors.NewValidationError(err.Error())
	}

	loan, err := h.loanRepo.GetByID(ctx, cmd.LoanID)
	if err != nil {
		return err
	}

	// Verify ownership
	if loan.BorrowerID != cmd.BorrowerID {
		return appErrors.NewForbiddenError("loan does not belong to borrower")
	}

	if !loan.Open() {
		return appErrors.NewConflictError(fmt.Sprintf("loan %s is already returned", loan.ID))
	}

	if err := h.loanRepo.MarkReturned(ctx, cmd.LoanID, cmd.ReturnedAt); err != nil {
		return appErrors.NewDatabaseError("mark returned", err)
	}

	event := events.NewLoanReturned(loan.ID, loan.BorrowerID, cmd.ReturnedAt, loan.IsOverdue)
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish return event",
			zap.String("loanID", loan.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Loan returned",
		zap.String("loanID", loan.ID),
		zap.String("borrowerID", loan.BorrowerID),
		zap.Bool("wasOverdue", loan.IsOverdue),
	)

	return nil
}
