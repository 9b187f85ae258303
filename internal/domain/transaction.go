package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the signed type of a transaction. The amount is always
// stored positive; the sign is derived from the type.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus is the lifecycle status of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is a single ledger movement. A transaction with IsRecurring set
// is a recurring template: it periodically generates non-recurring occurrence
// transactions, and its schedule state (LastProcessedAt, NextRecurringDate)
// lives on the template itself, never on the occurrences.
type Transaction struct {
	ID                string
	UserID            string
	AccountID         string
	Type              TransactionType
	Amount            decimal.Decimal
	Description       string
	Date              time.Time
	Category          string
	Status            TransactionStatus
	IsRecurring       bool
	RecurringInterval RecurringInterval
	LastProcessedAt   *time.Time
	NextRecurringDate *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SignedAmount returns the amount with the sign implied by the type:
// negative for EXPENSE, positive for INCOME.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsDueAt reports whether a recurring template is due for processing at now.
// A template that has never been processed is always due.
func (t *Transaction) IsDueAt(now time.Time) bool {
	if !t.IsRecurring || t.Status != StatusCompleted {
		return false
	}
	if t.LastProcessedAt == nil {
		return true
	}
	return t.NextRecurringDate != nil && !t.NextRecurringDate.After(now)
}

// Validate checks the transaction fields that do not require datastore access.
func (t *Transaction) Validate() error {
	if t.Type != TransactionTypeIncome && t.Type != TransactionTypeExpense {
		return ErrInvalidTransactionType
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	if t.IsRecurring {
		if err := ValidateInterval(t.RecurringInterval); err != nil {
			return err
		}
	}

	return nil
}
