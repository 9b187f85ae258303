package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
	"github.com/fintrack/fintrack/internal/usecase/mocks"
)

func seedReportFixtures(t *testing.T, lastMonth time.Time) (*mocks.MockUserRepository, *mocks.MockTransactionRepository) {
	t.Helper()

	userRepo := mocks.NewMockUserRepository()
	txnRepo := mocks.NewMockTransactionRepository()

	userRepo.Seed(&domain.User{ID: "user-1", Email: "user@example.com", Name: "Alex"})

	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-income",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(3000),
		Category:  "salary",
		Date:      lastMonth,
		Status:    domain.StatusCompleted,
	})
	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-rent",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(1200),
		Category:  "housing",
		Date:      lastMonth,
		Status:    domain.StatusCompleted,
	})
	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-food",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(400),
		Category:  "groceries",
		Date:      lastMonth,
		Status:    domain.StatusCompleted,
	})
	// Current-month transaction: outside the report window.
	txnRepo.Seed(&domain.Transaction{
		ID:        "txn-current",
		UserID:    "user-1",
		AccountID: "acc-1",
		Type:      domain.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(999),
		Category:  "noise",
		Date:      lastMonth.AddDate(0, 1, 0),
		Status:    domain.StatusCompleted,
	})

	return userRepo, txnRepo
}

func TestReportUseCase_MonthlyStatsForUser(t *testing.T) {
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)
	_ = userRepo

	uc := usecase.NewReportUseCase(userRepo, txnRepo, nil, nil, nil, nil, nil, nil)

	stats, err := uc.MonthlyStatsForUser(context.Background(), "user-1", lastMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !stats.TotalIncome.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected income 3000, got %s", stats.TotalIncome)
	}
	if !stats.TotalExpenses.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("expected expenses 1600, got %s", stats.TotalExpenses)
	}
	if !stats.Net().Equal(decimal.NewFromInt(1400)) {
		t.Errorf("expected net 1400, got %s", stats.Net())
	}
	if stats.TransactionCount != 3 {
		t.Errorf("expected 3 transactions in window, got %d", stats.TransactionCount)
	}
	if !stats.ByCategory["housing"].Equal(decimal.NewFromInt(1200)) {
		t.Errorf("expected housing 1200, got %s", stats.ByCategory["housing"])
	}
	if _, ok := stats.ByCategory["salary"]; ok {
		t.Error("income categories must not appear in the expense breakdown")
	}
}

func TestReportUseCase_GenerateMonthlyReports(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	insightGen := mocks.NewMockInsightGenerator(ctrl)

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)

	insightGen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), "January").
		Return([]string{"insight one", "insight two"}, nil)

	var sent usecase.Notification
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			sent = n
			return nil
		})

	uc := usecase.NewReportUseCase(userRepo, txnRepo, notifier, insightGen, nil, nil, nil, nil)
	processed, err := uc.GenerateMonthlyReports(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != 1 {
		t.Errorf("expected 1 processed report, got %d", processed)
	}

	if sent.TemplateType != "monthly-report" {
		t.Errorf("expected monthly-report template, got %s", sent.TemplateType)
	}
	if sent.Recipient != "user@example.com" {
		t.Errorf("expected recipient user@example.com, got %s", sent.Recipient)
	}
	if got := sent.TemplateData["totalExpenses"]; got != "1600" {
		t.Errorf("expected totalExpenses 1600, got %v", got)
	}
	insights, ok := sent.TemplateData["insights"].([]string)
	if !ok || len(insights) != 2 || insights[0] != "insight one" {
		t.Errorf("expected generated insights in payload, got %v", sent.TemplateData["insights"])
	}
}

func TestReportUseCase_GenerateMonthlyReports_InsightFailureFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	insightGen := mocks.NewMockInsightGenerator(ctrl)

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)

	insightGen.EXPECT().
		Generate(gomock.Any(), gomock.Any(), "January").
		Return(nil, errors.New("upstream unavailable"))

	var sent usecase.Notification
	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			sent = n
			return nil
		})

	uc := usecase.NewReportUseCase(userRepo, txnRepo, notifier, insightGen, nil, nil, nil, nil)
	processed, err := uc.GenerateMonthlyReports(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != 1 {
		t.Errorf("expected report to go out with fallback insights, got %d processed", processed)
	}

	insights, ok := sent.TemplateData["insights"].([]string)
	if !ok || len(insights) != 3 {
		t.Fatalf("expected 3 fallback insights, got %v", sent.TemplateData["insights"])
	}
}

func TestReportUseCase_GenerateMonthlyReports_PerUserFailureDoesNotStopPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)
	userRepo.Seed(&domain.User{ID: "user-2", Email: "other@example.com", Name: "Sam"})

	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			if n.Recipient == "other@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		}).
		Times(2)

	uc := usecase.NewReportUseCase(userRepo, txnRepo, notifier, nil, nil, nil, nil, nil)
	processed, err := uc.GenerateMonthlyReports(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != 1 {
		t.Errorf("expected 1 successful report out of 2 users, got %d", processed)
	}
}

func TestStaticInsightGenerator(t *testing.T) {
	gen := usecase.StaticInsightGenerator{}

	stats := usecase.MonthlyStats{
		TotalIncome:   decimal.NewFromInt(3000),
		TotalExpenses: decimal.NewFromInt(1600),
		ByCategory: map[string]decimal.Decimal{
			"housing":   decimal.NewFromInt(1200),
			"groceries": decimal.NewFromInt(400),
		},
		TransactionCount: 3,
	}

	insights, err := gen.Generate(context.Background(), stats, "January")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}
}

func TestReportUseCase_GenerateMonthlyReports_RecordsEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)
	outboxRepo := mocks.NewMockOutboxRepository()

	uc := usecase.NewReportUseCase(userRepo, txnRepo, notifier, nil, outboxRepo, mocks.NewMockIDGenerator(), nil, nil)
	if _, err := uc.GenerateMonthlyReports(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := outboxRepo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(events))
	}
	event := events[0]
	if event.EventType != domain.EventTypeReportGenerated {
		t.Errorf("expected event type %s, got %s", domain.EventTypeReportGenerated, event.EventType)
	}
	if event.AggregateType != domain.AggregateTypeUser || event.AggregateID != "user-1" {
		t.Errorf("expected user aggregate user-1, got %s %s", event.AggregateType, event.AggregateID)
	}
	if got := event.Payload["month"]; got != "January" {
		t.Errorf("expected month January, got %v", got)
	}
	if got := event.Payload["net"]; got != "1400" {
		t.Errorf("expected net 1400, got %v", got)
	}
}

func TestReportUseCase_GenerateMonthlyReports_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)

	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	userRepo, txnRepo := seedReportFixtures(t, lastMonth)
	userRepo.Seed(&domain.User{ID: "user-2", Email: "other@example.com", Name: "Sam"})
	metrics := mocks.NewMockMetrics()

	notifier.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			if n.Recipient == "other@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		}).
		Times(2)

	uc := usecase.NewReportUseCase(userRepo, txnRepo, notifier, nil, nil, nil, metrics, nil)
	if _, err := uc.GenerateMonthlyReports(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if metrics.ReportsGenerated != 1 {
		t.Errorf("expected 1 generated report counted, got %d", metrics.ReportsGenerated)
	}
	if metrics.ReportsFailed != 1 {
		t.Errorf("expected 1 failed report counted, got %d", metrics.ReportsFailed)
	}
}
