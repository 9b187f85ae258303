package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// LedgerUseCase is the only writer of account balances. Every mutation pairs
// a transaction-row write with the matching balance adjustment in one
// database transaction, so no reader can observe one without the other.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     LedgerMetrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics LedgerMetrics,
) *LedgerUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	UserID            string
	AccountID         string
	Type              domain.TransactionType
	Amount            decimal.Decimal
	Description       string
	Date              time.Time
	Category          string
	IsRecurring       bool
	RecurringInterval domain.RecurringInterval
}

// CreateTransaction inserts a transaction and adjusts the account balance as
// one atomic unit. For a recurring template the next occurrence date is
// derived from the transaction date.
func (uc *LedgerUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	txn, err := uc.createTransaction(ctx, input)
	if err != nil {
		uc.metrics.LedgerError("create")
		return nil, err
	}

	uc.metrics.TransactionCreated(txn.Amount.InexactFloat64())

	return txn, nil
}

func (uc *LedgerUseCase) createTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:                uc.idGen.Generate(),
		UserID:            input.UserID,
		AccountID:         input.AccountID,
		Type:              input.Type,
		Amount:            input.Amount,
		Description:       input.Description,
		Date:              input.Date,
		Category:          input.Category,
		Status:            domain.StatusCompleted,
		IsRecurring:       input.IsRecurring,
		RecurringInterval: input.RecurringInterval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if txn.IsRecurring {
		next := domain.NextRecurringDate(txn.Date, txn.RecurringInterval)
		txn.NextRecurringDate = &next
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if account.UserID != input.UserID {
		return nil, domain.ErrAccountNotFound
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	newBalance := account.ApplyDelta(txn.SignedAmount())
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	if err := uc.recordEvent(ctx, tx, txn, domain.EventTypeTransactionCreated, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// UpdateTransactionInput represents input for amending a transaction. The
// account is fixed at creation; amendments change type, amount, category,
// date, description and recurrence settings.
type UpdateTransactionInput struct {
	ID                string
	UserID            string
	Type              domain.TransactionType
	Amount            decimal.Decimal
	Description       string
	Date              time.Time
	Category          string
	IsRecurring       bool
	RecurringInterval domain.RecurringInterval
}

// UpdateTransaction amends a transaction and applies the net balance delta
// (new signed amount minus old signed amount) in the same atomic unit, so
// the cached balance stays consistent under amendment, never recomputed
// from scratch.
func (uc *LedgerUseCase) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*domain.Transaction, error) {
	txn, err := uc.updateTransaction(ctx, input)
	if err != nil {
		uc.metrics.LedgerError("update")
		return nil, err
	}

	uc.metrics.TransactionUpdated()

	return txn, nil
}

func (uc *LedgerUseCase) updateTransaction(ctx context.Context, input UpdateTransactionInput) (*domain.Transaction, error) {
	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.txnRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}

	if original.UserID != input.UserID {
		return nil, domain.ErrTransactionNotFound
	}

	updated := *original
	updated.Type = input.Type
	updated.Amount = input.Amount
	updated.Description = input.Description
	updated.Date = input.Date
	updated.Category = input.Category
	updated.IsRecurring = input.IsRecurring
	updated.RecurringInterval = input.RecurringInterval
	updated.UpdatedAt = now

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if updated.IsRecurring {
		next := domain.NextRecurringDate(updated.Date, updated.RecurringInterval)
		updated.NextRecurringDate = &next
	} else {
		updated.RecurringInterval = ""
		updated.NextRecurringDate = nil
		updated.LastProcessedAt = nil
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, original.AccountID)
	if err != nil {
		return nil, err
	}

	if err := uc.txnRepo.Update(ctx, tx, &updated); err != nil {
		return nil, err
	}

	delta := updated.SignedAmount().Sub(original.SignedAmount())
	newBalance := account.ApplyDelta(delta)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	if err := uc.recordEvent(ctx, tx, &updated, domain.EventTypeTransactionUpdated, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect in
// one atomic unit.
func (uc *LedgerUseCase) DeleteTransaction(ctx context.Context, id, userID string) error {
	if err := uc.deleteTransaction(ctx, id, userID); err != nil {
		uc.metrics.LedgerError("delete")
		return err
	}

	uc.metrics.TransactionDeleted()

	return nil
}

func (uc *LedgerUseCase) deleteTransaction(ctx context.Context, id, userID string) error {
	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	txn, err := uc.txnRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	if txn.UserID != userID {
		return domain.ErrTransactionNotFound
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, txn.AccountID)
	if err != nil {
		return err
	}

	if err := uc.txnRepo.Delete(ctx, tx, txn.ID); err != nil {
		return err
	}

	newBalance := account.ApplyDelta(txn.SignedAmount().Neg())
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return err
	}

	if err := uc.recordEvent(ctx, tx, txn, domain.EventTypeTransactionDeleted, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetTransaction retrieves a transaction owned by the user.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id, userID string) (*domain.Transaction, error) {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if txn.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}

	return txn, nil
}

// ListTransactionsByAccountInput represents input for listing transactions.
type ListTransactionsByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// ListTransactionsByAccount lists transactions for an account.
func (uc *LedgerUseCase) ListTransactionsByAccount(ctx context.Context, input ListTransactionsByAccountInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txnRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

func (uc *LedgerUseCase) recordEvent(ctx context.Context, tx Transaction, txn *domain.Transaction, eventType string, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"account_id":     txn.AccountID,
			"user_id":        txn.UserID,
			"type":           string(txn.Type),
			"amount":         txn.Amount.String(),
		},
		CreatedAt: now,
	})
}
