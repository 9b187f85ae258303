package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// AccountUseCase handles account business logic. It maintains the invariant
// that exactly one of a user's accounts is the default whenever the user has
// any: the first account is forced default, and electing a new default
// clears the previous one in the same database transaction.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	idGen       IDGenerator
	metrics     AccountMetrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(txManager TransactionManager, accountRepo AccountRepository, idGen IDGenerator, metrics AccountMetrics) *AccountUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	UserID    string
	Name      string
	Type      domain.AccountType
	IsDefault bool
}

// CreateAccount creates a new account with a zero balance. Opening balances
// are seeded through the ledger as ordinary transactions so the cached
// balance always equals the signed sum of the account's history.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()

	existing, err := uc.accountRepo.CountForUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	isDefault := input.IsDefault
	if existing == 0 {
		isDefault = true
	}

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		UserID:    input.UserID,
		Name:      input.Name,
		Type:      input.Type,
		Balance:   decimal.Zero,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if isDefault {
		if err := uc.accountRepo.ClearDefaultForUser(ctx, tx, input.UserID); err != nil {
			return nil, err
		}
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.AccountCreated()

	return account, nil
}

// SetDefaultAccount makes the given account the user's default, clearing any
// previous default atomically.
func (uc *AccountUseCase) SetDefaultAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
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

	if account.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}

	if err := uc.accountRepo.ClearDefaultForUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.SetDefault(ctx, tx, accountID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	account.IsDefault = true
	account.UpdatedAt = now

	uc.metrics.AccountOperation("set_default")

	return account, nil
}

// GetAccount retrieves an account owned by the user.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id, userID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if account.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}

	return account, nil
}

// ListAccounts lists a user's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return uc.accountRepo.ListByUser(ctx, userID)
}
