package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// Account represents a user's ledger account. Balance is a cached aggregate
// that must always equal the signed sum of the account's transactions; it is
// written only by LedgerUseCase inside the same database transaction that
// writes the transaction row it corresponds to.
type Account struct {
	ID        string
	UserID    string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyDelta returns the balance after applying a signed delta.
func (a *Account) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(delta)
}
