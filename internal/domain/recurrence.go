package domain

import "time"

// RecurringInterval is the period between occurrences of a recurring template.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// NextRecurringDate returns the next occurrence after from for the given
// interval. It is pure: no clock, no timezone lookups beyond from's own
// location. MONTHLY and YEARLY preserve the day-of-month where valid and
// clamp to the last day of the target month otherwise (Jan 31 -> Feb 28/29),
// so a schedule never skips or repeats a period.
func NextRecurringDate(from time.Time, interval RecurringInterval) time.Time {
	switch interval {
	case IntervalDaily:
		return from.AddDate(0, 0, 1)
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return addMonthsClamped(from, 1)
	case IntervalYearly:
		return addMonthsClamped(from, 12)
	default:
		return from
	}
}

// addMonthsClamped advances by months, clamping the day to the end of the
// target month. time.AddDate alone would normalize Jan 31 + 1 month to
// Mar 2/3, which repeats March and skips February.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	first := time.Date(year, month+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
