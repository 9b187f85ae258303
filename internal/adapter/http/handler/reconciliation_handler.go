package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fintrack/fintrack/internal/adapter/http/dto"
	"github.com/fintrack/fintrack/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	ReconcileAll(ctx context.Context) ([]*usecase.ReconciliationResult, error)
	RepairAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// ReconciliationHandler handles ledger consistency check requests.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// CheckAll verifies every account's cached balance against its transaction
// history. Read-only.
func (h *ReconciliationHandler) CheckAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.reconUC.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationsFromResults(results))
}

// CheckAccount verifies one account's cached balance. Read-only.
func (h *ReconciliationHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.reconUC.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

// Repair recomputes an account's balance from its transaction history and
// writes it back.
func (h *ReconciliationHandler) Repair(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.reconUC.RepairAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "repair failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}
