package usecase

import (
	"context"
	"time"

	"github.com/fintrack/fintrack/internal/domain"
)

// RecurringUseCase detects due recurring templates and materializes their
// occurrences. Processing is idempotent per (template, due occurrence): the
// template is re-fetched under a row lock and its due-ness re-checked inside
// the same database transaction that writes the occurrence, the balance
// adjustment and the schedule advance, so a duplicate or concurrent trigger
// finds the template no longer due and skips.
type RecurringUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
}

// NewRecurringUseCase creates a new RecurringUseCase.
func NewRecurringUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *RecurringUseCase {
	return &RecurringUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// ListDue returns the recurring templates due at now, read from a single
// consistent snapshot. It has no side effects; due-ness is re-validated
// before any mutation in ProcessTemplate.
func (uc *RecurringUseCase) ListDue(ctx context.Context, now time.Time) ([]*domain.Transaction, error) {
	return uc.txnRepo.ListDueTemplates(ctx, now)
}

// ProcessTemplate materializes one due occurrence of a template:
// re-validate due-ness, insert the occurrence transaction, adjust the
// account balance, and advance the schedule, all in one atomic unit.
// Returns domain.ErrNotRecurring when revalidation finds recurrence was
// disabled in the meantime, and domain.ErrNotDue when a concurrent run
// already processed the occurrence; callers treat both as a skip.
func (uc *RecurringUseCase) ProcessTemplate(ctx context.Context, templateID, userID string, now time.Time) (*domain.Transaction, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	template, err := uc.txnRepo.GetByIDForUpdate(ctx, tx, templateID)
	if err != nil {
		return nil, err
	}

	if template.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}

	if !template.IsRecurring {
		return nil, domain.ErrNotRecurring
	}

	if !template.IsDueAt(now) {
		return nil, domain.ErrNotDue
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, template.AccountID)
	if err != nil {
		return nil, err
	}

	occurrence := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		UserID:      template.UserID,
		AccountID:   template.AccountID,
		Type:        template.Type,
		Amount:      template.Amount,
		Description: template.Description + " (Recurring)",
		Date:        now,
		Category:    template.Category,
		Status:      domain.StatusCompleted,
		IsRecurring: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.txnRepo.Create(ctx, tx, occurrence); err != nil {
		return nil, err
	}

	newBalance := account.ApplyDelta(occurrence.SignedAmount())
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, err
	}

	next := domain.NextRecurringDate(now, template.RecurringInterval)
	if err := uc.txnRepo.UpdateSchedule(ctx, tx, template.ID, now, next); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   template.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.EventTypeRecurringProcessed,
			Payload: map[string]any{
				"template_id":    template.ID,
				"occurrence_id":  occurrence.ID,
				"account_id":     account.ID,
				"amount":         occurrence.Amount.String(),
				"next_recurring": next.Format(time.RFC3339),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return occurrence, nil
}
