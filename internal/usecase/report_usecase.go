package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// MonthlyStats summarizes one user's transactions for a calendar month.
type MonthlyStats struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
}

// Net returns income minus expenses.
func (s MonthlyStats) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// ReportUseCase aggregates the previous month's transactions into per-user
// reports and hands them to the notification collaborator. Read-only with
// respect to the ledger.
type ReportUseCase struct {
	userRepo   UserRepository
	txnRepo    TransactionRepository
	notifier   Notifier
	insightGen InsightGenerator
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    ReportMetrics
	logger     *slog.Logger
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	userRepo UserRepository,
	txnRepo TransactionRepository,
	notifier Notifier,
	insightGen InsightGenerator,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics ReportMetrics,
	logger *slog.Logger,
) *ReportUseCase {
	if insightGen == nil {
		insightGen = StaticInsightGenerator{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportUseCase{
		userRepo:   userRepo,
		txnRepo:    txnRepo,
		notifier:   notifier,
		insightGen: insightGen,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    metrics,
		logger:     logger,
	}
}

// GenerateMonthlyReports builds and dispatches a prior-month report for
// every user. Per-user failures are logged and do not stop the pass.
func (uc *ReportUseCase) GenerateMonthlyReports(ctx context.Context, now time.Time) (int, error) {
	users, err := uc.userRepo.List(ctx, 10000, 0)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	lastMonth := now.AddDate(0, -1, 0)
	monthName := lastMonth.Month().String()

	processed := 0
	for _, user := range users {
		if err := uc.generateReport(ctx, user, lastMonth, monthName); err != nil {
			uc.metrics.ReportFailed()
			uc.logger.ErrorContext(ctx, "monthly report failed",
				"user_id", user.ID,
				"error", err,
			)
			continue
		}
		uc.metrics.ReportGenerated()
		processed++
	}

	return processed, nil
}

// MonthlyStatsForUser aggregates a user's transactions for the calendar
// month containing at.
func (uc *ReportUseCase) MonthlyStatsForUser(ctx context.Context, userID string, at time.Time) (MonthlyStats, error) {
	start, end := domain.MonthRange(at)

	transactions, err := uc.txnRepo.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		return MonthlyStats{}, err
	}

	stats := MonthlyStats{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    make(map[string]decimal.Decimal),
	}

	for _, txn := range transactions {
		if txn.Type == domain.TransactionTypeExpense {
			stats.TotalExpenses = stats.TotalExpenses.Add(txn.Amount)
			stats.ByCategory[txn.Category] = stats.ByCategory[txn.Category].Add(txn.Amount)
		} else {
			stats.TotalIncome = stats.TotalIncome.Add(txn.Amount)
		}
	}
	stats.TransactionCount = len(transactions)

	return stats, nil
}

func (uc *ReportUseCase) generateReport(ctx context.Context, user *domain.User, lastMonth time.Time, monthName string) error {
	stats, err := uc.MonthlyStatsForUser(ctx, user.ID, lastMonth)
	if err != nil {
		return fmt.Errorf("aggregate stats: %w", err)
	}

	insights, err := uc.insightGen.Generate(ctx, stats, monthName)
	if err != nil {
		// Insights are best-effort; the report still goes out.
		uc.logger.WarnContext(ctx, "insight generation failed, using fallback",
			"user_id", user.ID,
			"error", err,
		)
		insights = fallbackInsights
	}

	byCategory := make(map[string]any, len(stats.ByCategory))
	for category, amount := range stats.ByCategory {
		byCategory[category] = amount.String()
	}

	err = uc.notifier.Send(ctx, Notification{
		Recipient:    user.Email,
		Subject:      fmt.Sprintf("Your Monthly Financial Report - %s", monthName),
		TemplateType: "monthly-report",
		TemplateData: map[string]any{
			"userName":         user.Name,
			"month":            monthName,
			"totalIncome":      stats.TotalIncome.String(),
			"totalExpenses":    stats.TotalExpenses.String(),
			"net":              stats.Net().String(),
			"byCategory":       byCategory,
			"transactionCount": stats.TransactionCount,
			"insights":         insights,
		},
	})
	if err != nil {
		return err
	}

	uc.recordReportEvent(ctx, user.ID, monthName, stats)

	return nil
}

// recordReportEvent writes a report.generated outbox event. The report has
// already gone out, so a write failure is logged rather than failing the
// pass.
func (uc *ReportUseCase) recordReportEvent(ctx context.Context, userID, monthName string, stats MonthlyStats) {
	if uc.outboxRepo == nil {
		return
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   userID,
		AggregateType: domain.AggregateTypeUser,
		EventType:     domain.EventTypeReportGenerated,
		Payload: map[string]any{
			"user_id":           userID,
			"month":             monthName,
			"total_income":      stats.TotalIncome.String(),
			"total_expenses":    stats.TotalExpenses.String(),
			"net":               stats.Net().String(),
			"transaction_count": stats.TransactionCount,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.outboxRepo.Create(ctx, nil, event); err != nil {
		uc.logger.WarnContext(ctx, "recording report event failed",
			"user_id", userID,
			"error", err,
		)
	}
}

var fallbackInsights = []string{
	"Your highest expense category this month might need attention.",
	"Consider setting up a budget for better financial management.",
	"Track your recurring expenses to identify potential savings.",
}

// StaticInsightGenerator returns simple rule-based insights. It stands in
// for the external insight collaborator when none is configured.
type StaticInsightGenerator struct{}

// Generate produces deterministic insights from the aggregated stats.
func (StaticInsightGenerator) Generate(_ context.Context, stats MonthlyStats, month string) ([]string, error) {
	topCategory := ""
	topAmount := decimal.Zero
	for category, amount := range stats.ByCategory {
		if amount.GreaterThan(topAmount) || (amount.Equal(topAmount) && category < topCategory) {
			topCategory = category
			topAmount = amount
		}
	}

	insights := make([]string, 0, 3)

	if topCategory != "" {
		insights = append(insights, fmt.Sprintf(
			"Your biggest spending category in %s was %s at %s.", month, topCategory, topAmount.StringFixed(2)))
	}

	if stats.Net().IsNegative() {
		insights = append(insights, fmt.Sprintf(
			"You spent %s more than you earned in %s.", stats.Net().Neg().StringFixed(2), month))
	} else {
		insights = append(insights, fmt.Sprintf(
			"You saved %s in %s.", stats.Net().StringFixed(2), month))
	}

	insights = append(insights, fallbackInsights[2])

	return insights, nil
}
