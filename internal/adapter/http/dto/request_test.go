package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{
		Name:      "Main",
		Type:      "SAVINGS",
		IsDefault: true,
	}

	got := req.ToUseCaseInput("user-1")

	if got.UserID != "user-1" || got.Name != "Main" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if got.Type != domain.AccountTypeSavings || !got.IsDefault {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}

func TestCreateTransactionRequest_ToUseCaseInput(t *testing.T) {
	date := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	req := &CreateTransactionRequest{
		AccountID:         "acc-1",
		Type:              "EXPENSE",
		Amount:            decimal.RequireFromString("12.34"),
		Description:       "Netflix",
		Date:              &date,
		Category:          "entertainment",
		IsRecurring:       true,
		RecurringInterval: "MONTHLY",
	}

	got := req.ToUseCaseInput("user-1")

	if got.UserID != "user-1" || got.AccountID != "acc-1" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if got.Type != domain.TransactionTypeExpense || !got.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if !got.Date.Equal(date) {
		t.Fatalf("expected date %s, got %s", date, got.Date)
	}
	if !got.IsRecurring || got.RecurringInterval != domain.IntervalMonthly {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}

func TestCreateTransactionRequest_DateDefaultsToNow(t *testing.T) {
	req := &CreateTransactionRequest{
		AccountID: "acc-1",
		Type:      "INCOME",
		Amount:    decimal.NewFromInt(100),
	}

	before := time.Now().UTC()
	got := req.ToUseCaseInput("user-1")
	after := time.Now().UTC()

	if got.Date.Before(before) || got.Date.After(after) {
		t.Fatalf("expected date defaulted to now, got %s", got.Date)
	}
}

func TestUpdateTransactionRequest_ToUseCaseInput(t *testing.T) {
	req := &UpdateTransactionRequest{
		Type:        "INCOME",
		Amount:      decimal.NewFromInt(500),
		Description: "Bonus",
		Category:    "salary",
	}

	got := req.ToUseCaseInput("txn-1", "user-1")

	if got.ID != "txn-1" || got.UserID != "user-1" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if got.Type != domain.TransactionTypeIncome || !got.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if got.IsRecurring {
		t.Fatal("expected recurrence to be off by default")
	}
}
