package scheduler

import (
	"context"
	"testing"
	"time"
)

type countingReports struct {
	runs int
}

func (r *countingReports) GenerateMonthlyReports(ctx context.Context, now time.Time) (int, error) {
	r.runs++
	return 1, nil
}

func TestScheduler_MaybeRunReports(t *testing.T) {
	reports := &countingReports{}
	s := New(Config{Reports: reports})

	firstOfMonth := time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC)
	midMonth := time.Date(2026, time.March, 15, 0, 30, 0, 0, time.UTC)
	nextMonth := time.Date(2026, time.April, 1, 0, 30, 0, 0, time.UTC)

	s.maybeRunReports(context.Background(), midMonth)
	if reports.runs != 0 {
		t.Error("expected no run mid-month")
	}

	s.maybeRunReports(context.Background(), firstOfMonth)
	if reports.runs != 1 {
		t.Errorf("expected 1 run on the first of the month, got %d", reports.runs)
	}

	// Same month again: the daily tick on the 1st must not double-fire.
	s.maybeRunReports(context.Background(), firstOfMonth.Add(time.Hour))
	if reports.runs != 1 {
		t.Errorf("expected no duplicate run within the month, got %d", reports.runs)
	}

	s.maybeRunReports(context.Background(), nextMonth)
	if reports.runs != 2 {
		t.Errorf("expected a run on the next month's first day, got %d", reports.runs)
	}
}
