package handlers

import (
	"context"
	"fmt"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/application/queries"

	"go.uber.org/zap"
)

// ListLoansHandler handles loan listing queries
type ListLoansHandler struct {
	loanRepo ports.LoanRepository
	logger   *zap.Logger
}

// NewListLoansHandler creates a new list loans handler
func NewListLoansHandler(loanRepo ports.LoanRepository, logger *zap.Logger) *ListLoansHandler {
	return &ListLoansHandler{
		loanRepo: loanRepo,
		logger:   logger,
	}
}

// Handle executes the list loans query
func (h *ListLoansHandler) Handle(ctx context.Context, query queries.ListLoansQuery) (*queries.ListLoansResult, error) {
	loans, err := h.loanRepo.FindByBorrower(ctx, query.BorrowerID, query.IncludeClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	if query.Limit > 0 && len(loans) > query.Limit {
		loans = loans[:query.Limit]
	}

	result := &queries.ListLoansResult{
		Loans: make([]queries.LoanView, 0, len(loans)),
		Total: len(loans),
	}
	for _, loan := range loans {
		result.Loans = append(result.Loans, queries.LoanView{
			ID:           loan.ID,
			BorrowerID:   loan.BorrowerID,
			ItemTitle:    loan.DisplayTitle(),
			CheckedOutAt: loan.CheckedOutAt,
			DueDate:      loan.DueDate,
			ReturnDate:   loan.ReturnDate,
			IsOverdue:    loan.IsOverdue,
		})
	}

	return result, nil
}
