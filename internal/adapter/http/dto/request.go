package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(userID string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		UserID:    userID,
		Name:      r.Name,
		Type:      domain.AccountType(r.Type),
		IsDefault: r.IsDefault,
	}
}

// CreateTransactionRequest represents a request to record a transaction.
// An omitted date defaults to now; a transaction with is_recurring set is a
// recurring template and must carry an interval.
type CreateTransactionRequest struct {
	AccountID         string          `json:"account_id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Date              *time.Time      `json:"date,omitempty"`
	Category          string          `json:"category"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput(userID string) usecase.CreateTransactionInput {
	date := time.Now().UTC()
	if r.Date != nil {
		date = *r.Date
	}

	return usecase.CreateTransactionInput{
		UserID:            userID,
		AccountID:         r.AccountID,
		Type:              domain.TransactionType(r.Type),
		Amount:            r.Amount,
		Description:       r.Description,
		Date:              date,
		Category:          r.Category,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: domain.RecurringInterval(r.RecurringInterval),
	}
}

// UpdateTransactionRequest represents a request to amend a transaction.
type UpdateTransactionRequest struct {
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Date              *time.Time      `json:"date,omitempty"`
	Category          string          `json:"category"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput(id, userID string) usecase.UpdateTransactionInput {
	date := time.Now().UTC()
	if r.Date != nil {
		date = *r.Date
	}

	return usecase.UpdateTransactionInput{
		ID:                id,
		UserID:            userID,
		Type:              domain.TransactionType(r.Type),
		Amount:            r.Amount,
		Description:       r.Description,
		Date:              date,
		Category:          r.Category,
		IsRecurring:       r.IsRecurring,
		RecurringInterval: domain.RecurringInterval(r.RecurringInterval),
	}
}

// SetBudgetRequest represents a request to set the monthly budget ceiling.
type SetBudgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
