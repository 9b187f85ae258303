package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
	"github.com/fintrack/fintrack/internal/usecase/mocks"
)

func seedLedgerHistory(accRepo *mocks.MockAccountRepository, txnRepo *mocks.MockTransactionRepository, cachedBalance int64) {
	accRepo.Seed(&domain.Account{
		ID:      "acc-1",
		UserID:  "user-1",
		Name:    "Main",
		Type:    domain.AccountTypeCurrent,
		Balance: decimal.NewFromInt(cachedBalance),
	})
	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-1",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(200),
		Date:      time.Now(),
		Status:    domain.StatusCompleted,
	})
	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-2",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(50),
		Date:      time.Now(),
		Status:    domain.StatusCompleted,
	})
	// Signed sum: +200 - 50 = 150.
}

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	t.Run("consistent account", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		txnRepo := mocks.NewMockTransactionRepository()
		seedLedgerHistory(accRepo, txnRepo, 150)

		uc := usecase.NewReconciliationUseCase(nil, accRepo, txnRepo, nil)
		result, err := uc.ReconcileAccount(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.IsReconciled {
			t.Error("expected account to reconcile")
		}
		if !result.Difference.IsZero() {
			t.Errorf("expected zero difference, got %s", result.Difference)
		}
	})

	t.Run("drifted account", func(t *testing.T) {
		accRepo := mocks.NewMockAccountRepository()
		txnRepo := mocks.NewMockTransactionRepository()
		seedLedgerHistory(accRepo, txnRepo, 175)

		uc := usecase.NewReconciliationUseCase(nil, accRepo, txnRepo, nil)
		result, err := uc.ReconcileAccount(context.Background(), "acc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.IsReconciled {
			t.Error("expected drift to be reported")
		}
		if !result.Difference.Equal(decimal.NewFromInt(25)) {
			t.Errorf("expected difference 25, got %s", result.Difference)
		}
		// Audit is read-only: the cached balance must be untouched.
		if !accRepo.Stored("acc-1").Balance.Equal(decimal.NewFromInt(175)) {
			t.Error("expected reconcile to leave the balance untouched")
		}
	})
}

func TestReconciliationUseCase_RepairAccount(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	txMgr := mocks.NewMockTransactionManager()
	seedLedgerHistory(accRepo, txnRepo, 175)

	uc := usecase.NewReconciliationUseCase(txMgr, accRepo, txnRepo, nil)
	result, err := uc.RepairAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CalculatedBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected calculated balance 150, got %s", result.CalculatedBalance)
	}
	if !accRepo.Stored("acc-1").Balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected repaired balance 150, got %s", accRepo.Stored("acc-1").Balance)
	}
	if txMgr.Committed() != 1 {
		t.Errorf("expected 1 committed transaction, got %d", txMgr.Committed())
	}
}

func TestReconciliationUseCase_ReconcileAll(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	seedLedgerHistory(accRepo, txnRepo, 150)
	accRepo.Seed(&domain.Account{
		ID:      "acc-empty",
		UserID:  "user-2",
		Name:    "Empty",
		Type:    domain.AccountTypeSavings,
		Balance: decimal.Zero,
	})

	uc := usecase.NewReconciliationUseCase(nil, accRepo, txnRepo, nil)
	results, err := uc.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, result := range results {
		if !result.IsReconciled {
			t.Errorf("expected account %s to reconcile", result.AccountID)
		}
	}
}

func TestReconciliationUseCase_ReconcileAccount_DriftCounted(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	metrics := mocks.NewMockMetrics()

	// Cached balance 100 against an empty history: drifted by 100.
	seedAccount(accRepo, "acc-1", "user-1", 100)
	seedAccount(accRepo, "acc-2", "user-1", 0)

	uc := usecase.NewReconciliationUseCase(nil, accRepo, txnRepo, metrics)

	if _, err := uc.ReconcileAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if metrics.ReconciliationRuns != 2 {
		t.Errorf("expected 2 runs counted, got %d", metrics.ReconciliationRuns)
	}
	if metrics.ReconciliationDrifts != 1 {
		t.Errorf("expected 1 drift counted, got %d", metrics.ReconciliationDrifts)
	}
}
