package domain

import "errors"

var (
	// Not-found errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrUserNotFound        = errors.New("user not found")

	// Validation errors
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("transaction type must be INCOME or EXPENSE")
	ErrInvalidInterval        = errors.New("invalid recurring interval")
	ErrNotRecurring           = errors.New("transaction is not a recurring template")

	// ErrNotDue signals that revalidation found a template no longer due:
	// a concurrent run already processed it, or recurrence was disabled.
	// Callers treat it as a skip, not a failure.
	ErrNotDue = errors.New("recurring template is not due")

	// ErrThrottled signals that the per-user dispatch cap was reached.
	// The work item stays due and is retried on the next detection cycle.
	ErrThrottled = errors.New("per-user processing limit reached")
)
