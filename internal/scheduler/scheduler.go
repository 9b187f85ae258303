package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fintrack/fintrack/internal/usecase"
)

// BudgetChecker is the slice of BudgetUseCase the scheduler needs.
type BudgetChecker interface {
	CheckBudgets(ctx context.Context, now time.Time) (usecase.CheckResult, error)
}

// ReportGenerator is the slice of ReportUseCase the scheduler needs.
type ReportGenerator interface {
	GenerateMonthlyReports(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the periodic jobs: recurring-transaction dispatch, budget
// monitoring, and monthly reports. Each job runs on its own ticker; a slow
// job never delays the others.
type Scheduler struct {
	dispatcher *Dispatcher
	budgets    BudgetChecker
	reports    ReportGenerator
	logger     *slog.Logger

	recurringInterval time.Duration
	budgetInterval    time.Duration

	// lastReportMonth guards the monthly report job against firing twice in
	// one month. Only touched from the report loop goroutine.
	lastReportMonth time.Month
	lastReportYear  int
}

// Config configures a Scheduler.
type Config struct {
	Dispatcher *Dispatcher
	Budgets    BudgetChecker
	Reports    ReportGenerator
	Logger     *slog.Logger

	RecurringInterval time.Duration
	BudgetInterval    time.Duration
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.RecurringInterval == 0 {
		cfg.RecurringInterval = time.Hour
	}
	if cfg.BudgetInterval == 0 {
		cfg.BudgetInterval = 6 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Scheduler{
		dispatcher:        cfg.Dispatcher,
		budgets:           cfg.Budgets,
		reports:           cfg.Reports,
		logger:            cfg.Logger,
		recurringInterval: cfg.RecurringInterval,
		budgetInterval:    cfg.BudgetInterval,
	}
}

// Run starts all job loops and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scheduler started",
		"recurring_interval", s.recurringInterval.String(),
		"budget_interval", s.budgetInterval.String(),
	)

	g, ctx := errgroup.WithContext(ctx)

	if s.dispatcher != nil {
		g.Go(func() error { return s.runRecurringLoop(ctx) })
	}
	if s.budgets != nil {
		g.Go(func() error { return s.runBudgetLoop(ctx) })
	}
	if s.reports != nil {
		g.Go(func() error { return s.runReportLoop(ctx) })
	}

	return g.Wait()
}

func (s *Scheduler) runRecurringLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.recurringInterval)
	defer ticker.Stop()

	// First pass immediately so a restart doesn't wait a full interval.
	s.runRecurringPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runRecurringPass(ctx)
		}
	}
}

func (s *Scheduler) runRecurringPass(ctx context.Context) {
	if _, err := s.dispatcher.Dispatch(ctx, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "recurring dispatch pass failed", "error", err)
	}
}

func (s *Scheduler) runBudgetLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.budgetInterval)
	defer ticker.Stop()

	s.runBudgetPass(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runBudgetPass(ctx)
		}
	}
}

func (s *Scheduler) runBudgetPass(ctx context.Context) {
	result, err := s.budgets.CheckBudgets(ctx, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "budget check pass failed", "error", err)
		return
	}

	s.logger.InfoContext(ctx, "budget check pass complete",
		"checked", result.Checked,
		"alerted", result.Alerted,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
}

func (s *Scheduler) runReportLoop(ctx context.Context) error {
	// The report job fires on the first day of each month. Ticking daily and
	// checking the date survives restarts without a persistent cron state.
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.maybeRunReports(ctx, time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.maybeRunReports(ctx, time.Now().UTC())
		}
	}
}

func (s *Scheduler) maybeRunReports(ctx context.Context, now time.Time) {
	if now.Day() != 1 {
		return
	}
	if s.lastReportYear == now.Year() && s.lastReportMonth == now.Month() {
		return
	}

	processed, err := s.reports.GenerateMonthlyReports(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "monthly report pass failed", "error", err)
		return
	}

	s.lastReportYear = now.Year()
	s.lastReportMonth = now.Month()

	s.logger.InfoContext(ctx, "monthly report pass complete", "reports", processed)
}
