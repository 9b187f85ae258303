package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetDefaultForUser(ctx context.Context, userID string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	ClearDefaultForUser(ctx context.Context, tx Transaction, userID string) error
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetDefault(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
}

// TransactionRepository defines data access for ledger transactions,
// including recurring templates.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id string) error
	UpdateSchedule(ctx context.Context, tx Transaction, id string, lastProcessedAt, nextRecurringDate time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error)
	// ListDueTemplates returns recurring templates that are due at the given
	// instant, from a single consistent snapshot.
	ListDueTemplates(ctx context.Context, now time.Time) ([]*domain.Transaction, error)
	SumExpensesForAccount(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error)
	SumSignedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// BudgetRepository defines data access for budgets.
type BudgetRepository interface {
	Upsert(ctx context.Context, budget *domain.Budget) error
	GetByUserID(ctx context.Context, userID string) (*domain.Budget, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Budget, error)
	UpdateLastAlertSent(ctx context.Context, id string, at time.Time) error
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// IdempotencyStore caches responses for idempotent request replay.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (exists bool, cached []byte, err error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Notification is the payload handed to the notification collaborator.
type Notification struct {
	Recipient    string
	Subject      string
	TemplateType string
	TemplateData map[string]any
}

// Notifier dispatches notifications to an external collaborator. A nil error
// means the dispatch was accepted; failures must be surfaced, never
// swallowed.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// InsightGenerator produces spending insights for a monthly report.
type InsightGenerator interface {
	Generate(ctx context.Context, stats MonthlyStats, month string) ([]string, error)
}

// Throttle bounds in-flight recurring processing per user. Allow reports
// whether one more work item may run for the user in the current window.
// Denied items are deferred, not dropped: they stay due and are retried on
// the next detection cycle.
type Throttle interface {
	Allow(ctx context.Context, userID string) (bool, error)
}
