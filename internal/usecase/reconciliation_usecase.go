package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationUseCase audits the cached-balance invariant: for every
// account, balance must equal the signed sum of its transactions. It runs
// out-of-band and never mutates unless repair is requested explicitly.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	metrics     ReconciliationMetrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	metrics ReconciliationMetrics,
) *ReconciliationUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &ReconciliationUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		metrics:     metrics,
	}
}

// ReconciliationResult is the outcome of auditing one account.
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	CheckedAt         time.Time
}

// ReconcileAccount compares an account's cached balance with the signed sum
// of its transactions.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.txnRepo.SumSignedByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	diff := account.Balance.Sub(calculated)

	uc.metrics.ReconciliationRun()
	if !diff.IsZero() {
		uc.metrics.ReconciliationDrift()
	}

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		CheckedAt:         time.Now().UTC(),
	}, nil
}

// ReconcileAll audits every account and returns the results.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) ([]*ReconciliationResult, error) {
	accounts, err := uc.accountRepo.List(ctx, 10000, 0)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(accounts))
	for _, account := range accounts {
		result, err := uc.ReconcileAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("reconcile account %s: %w", account.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// RepairAccount rewrites the cached balance from the transaction history.
// The recompute and the write happen under the account row lock so a
// concurrent ledger mutation cannot interleave.
func (uc *ReconciliationUseCase) RepairAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	calculated, err := uc.txnRepo.SumSignedByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	diff := account.Balance.Sub(calculated)
	if !diff.IsZero() {
		if err := uc.accountRepo.UpdateBalance(ctx, tx, accountID, calculated, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      true,
		CheckedAt:         now,
	}, nil
}
