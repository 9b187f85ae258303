package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// BudgetUseCase monitors spending against budget ceilings and dispatches
// threshold-crossing alerts. An alert fires at most once per calendar month
// per budget: LastAlertSent is persisted only after the notification is
// dispatched, which makes delivery at-least-once — after a crash between
// dispatch and persist the next cycle may duplicate one alert, which is
// preferred over silently suppressing alerts for the rest of the month.
type BudgetUseCase struct {
	budgetRepo  BudgetRepository
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	userRepo    UserRepository
	notifier    Notifier
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     BudgetMetrics
	logger      *slog.Logger
}

// NewBudgetUseCase creates a new BudgetUseCase.
func NewBudgetUseCase(
	budgetRepo BudgetRepository,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	userRepo UserRepository,
	notifier Notifier,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics BudgetMetrics,
	logger *slog.Logger,
) *BudgetUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BudgetUseCase{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger,
	}
}

// SetBudget creates or replaces the user's monthly budget ceiling. The
// alert state is untouched: raising the ceiling mid-month does not re-arm
// an alert that already fired.
func (uc *BudgetUseCase) SetBudget(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Budget, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	budget := &domain.Budget{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.budgetRepo.Upsert(ctx, budget); err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}

	return uc.budgetRepo.GetByUserID(ctx, userID)
}

// GetBudget returns the user's budget.
func (uc *BudgetUseCase) GetBudget(ctx context.Context, userID string) (*domain.Budget, error) {
	return uc.budgetRepo.GetByUserID(ctx, userID)
}

// CheckResult summarizes one monitoring pass.
type CheckResult struct {
	Checked int
	Alerted int
	Skipped int
	Failed  int
}

// CheckBudgets evaluates every budget against the current calendar month's
// expenses on the user's default account. Users without a default account
// are skipped. Notification failures are logged and retried on the next
// cycle; they never stop the pass.
func (uc *BudgetUseCase) CheckBudgets(ctx context.Context, now time.Time) (CheckResult, error) {
	var result CheckResult

	budgets, err := uc.budgetRepo.List(ctx, 1000, 0)
	if err != nil {
		return result, fmt.Errorf("list budgets: %w", err)
	}

	for _, budget := range budgets {
		result.Checked++
		uc.metrics.BudgetChecked()

		alerted, err := uc.checkBudget(ctx, budget, now)
		switch {
		case err != nil:
			result.Failed++
			uc.logger.ErrorContext(ctx, "budget check failed",
				"budget_id", budget.ID,
				"user_id", budget.UserID,
				"error", err,
			)
		case alerted:
			result.Alerted++
		default:
			result.Skipped++
		}
	}

	return result, nil
}

func (uc *BudgetUseCase) checkBudget(ctx context.Context, budget *domain.Budget, now time.Time) (bool, error) {
	account, err := uc.accountRepo.GetDefaultForUser(ctx, budget.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// No default account means no alert is possible.
			return false, nil
		}
		return false, err
	}

	start, end := domain.MonthRange(now)
	spent, err := uc.txnRepo.SumExpensesForAccount(ctx, account.ID, start, end)
	if err != nil {
		return false, fmt.Errorf("sum expenses: %w", err)
	}

	percentage := budget.PercentageUsed(spent)

	if !budget.ShouldAlert(spent, now) {
		if !percentage.LessThan(decimal.NewFromInt(domain.AlertThresholdPercent)) {
			// Over the threshold but already alerted this month.
			uc.metrics.BudgetAlertSuppressed()
		}
		return false, nil
	}

	user, err := uc.userRepo.GetByID(ctx, budget.UserID)
	if err != nil {
		return false, err
	}

	err = uc.notifier.Send(ctx, Notification{
		Recipient:    user.Email,
		Subject:      fmt.Sprintf("Budget Alert for %s", account.Name),
		TemplateType: "budget-alert",
		TemplateData: map[string]any{
			"userName":       user.Name,
			"percentageUsed": percentage.StringFixed(1),
			"budgetAmount":   budget.Amount.StringFixed(1),
			"totalExpenses":  spent.StringFixed(1),
			"accountName":    account.Name,
		},
	})
	if err != nil {
		// LastAlertSent stays unchanged so the alert is retried next cycle.
		uc.metrics.BudgetAlertFailed()
		return false, fmt.Errorf("dispatch alert: %w", err)
	}

	if err := uc.budgetRepo.UpdateLastAlertSent(ctx, budget.ID, now); err != nil {
		return false, fmt.Errorf("update last alert sent: %w", err)
	}

	uc.recordAlertEvent(ctx, budget, account.ID, percentage, spent, now)
	uc.metrics.BudgetAlertSent()

	uc.logger.InfoContext(ctx, "budget alert sent",
		"budget_id", budget.ID,
		"user_id", budget.UserID,
		"percentage_used", percentage.StringFixed(1),
	)

	return true, nil
}

// recordAlertEvent writes a budget.alert outbox event. The alert is advisory
// and already delivered by the notifier, so a write failure is logged rather
// than failing the check.
func (uc *BudgetUseCase) recordAlertEvent(ctx context.Context, budget *domain.Budget, accountID string, percentage, spent decimal.Decimal, now time.Time) {
	if uc.outboxRepo == nil {
		return
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   budget.ID,
		AggregateType: domain.AggregateTypeBudget,
		EventType:     domain.EventTypeBudgetAlert,
		Payload: map[string]any{
			"budget_id":       budget.ID,
			"user_id":         budget.UserID,
			"account_id":      accountID,
			"percentage_used": percentage.StringFixed(1),
			"total_expenses":  spent.String(),
		},
		CreatedAt: now,
	}

	if err := uc.outboxRepo.Create(ctx, nil, event); err != nil {
		uc.logger.WarnContext(ctx, "recording budget alert event failed",
			"budget_id", budget.ID,
			"error", err,
		)
	}
}
