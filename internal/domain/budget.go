package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertThresholdPercent is the budget usage percentage at which an alert
// fires.
const AlertThresholdPercent = 80

// Budget is a per-user monthly spending ceiling. LastAlertSent is written
// only by BudgetUseCase, moves only forward in time, and advances at most
// once per qualifying calendar month.
type Budget struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PercentageUsed returns spent/ceiling*100, or zero when the ceiling is zero.
func (b *Budget) PercentageUsed(spent decimal.Decimal) decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return spent.Div(b.Amount).Mul(decimal.NewFromInt(100))
}

// ShouldAlert reports whether crossing the threshold at now warrants a new
// alert. An alert already sent in the current calendar month suppresses
// further alerts until the month rolls over.
func (b *Budget) ShouldAlert(spent decimal.Decimal, now time.Time) bool {
	if b.PercentageUsed(spent).LessThan(decimal.NewFromInt(AlertThresholdPercent)) {
		return false
	}
	return !b.AlertedThisMonth(now)
}

// AlertedThisMonth reports whether an alert already went out in now's
// calendar month.
func (b *Budget) AlertedThisMonth(now time.Time) bool {
	return b.LastAlertSent != nil && !isEarlierMonth(*b.LastAlertSent, now)
}

func isEarlierMonth(t, now time.Time) bool {
	return t.Year() < now.Year() ||
		(t.Year() == now.Year() && t.Month() < now.Month())
}

// MonthRange returns the inclusive start and end of t's calendar month.
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}
