package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/adapter/http/dto"
	"github.com/fintrack/fintrack/internal/adapter/http/middleware"
	"github.com/fintrack/fintrack/internal/domain"
)

// BudgetService defines the behavior needed by BudgetHandler.
type BudgetService interface {
	SetBudget(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Budget, error)
	GetBudget(ctx context.Context, userID string) (*domain.Budget, error)
}

// BudgetHandler handles budget HTTP requests.
type BudgetHandler struct {
	budgetUC BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetUC BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetUC: budgetUC}
}

// Set creates or replaces the caller's monthly budget ceiling.
func (h *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req dto.SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	budget, err := h.budgetUC.SetBudget(r.Context(), userID, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to set budget", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromDomain(budget))
}

// Get retrieves the caller's budget.
func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())

	budget, err := h.budgetUC.GetBudget(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get budget", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BudgetFromDomain(budget))
}
