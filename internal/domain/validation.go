package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")
	ErrInvalidEmail   = errors.New("invalid email format")
)

const (
	// MaxTransactionAmount guards against obviously corrupt inputs.
	MaxTransactionAmount = "1000000000"

	MaxDescriptionLength = 500
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateAmount validates a transaction or budget amount. Amounts are
// stored positive; the sign is derived from the transaction type.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// ValidateInterval validates a recurring interval value.
func ValidateInterval(interval RecurringInterval) error {
	switch interval {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
}

// ValidateEmail validates a notification address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
