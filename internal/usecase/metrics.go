package usecase

// Metric hooks let the use cases report outcomes without depending on the
// collector. A nil hook in any constructor falls back to a no-op.

// AccountMetrics records account lifecycle outcomes.
type AccountMetrics interface {
	AccountCreated()
	AccountOperation(op string)
}

// LedgerMetrics records ledger mutation outcomes.
type LedgerMetrics interface {
	TransactionCreated(amount float64)
	TransactionUpdated()
	TransactionDeleted()
	LedgerError(op string)
}

// BudgetMetrics records budget monitoring outcomes.
type BudgetMetrics interface {
	BudgetChecked()
	BudgetAlertSent()
	BudgetAlertFailed()
	BudgetAlertSuppressed()
}

// ReportMetrics records monthly report outcomes.
type ReportMetrics interface {
	ReportGenerated()
	ReportFailed()
}

// ReconciliationMetrics records balance audit outcomes.
type ReconciliationMetrics interface {
	ReconciliationRun()
	ReconciliationDrift()
}

type nopMetrics struct{}

func (nopMetrics) AccountCreated()            {}
func (nopMetrics) AccountOperation(string)    {}
func (nopMetrics) TransactionCreated(float64) {}
func (nopMetrics) TransactionUpdated()        {}
func (nopMetrics) TransactionDeleted()        {}
func (nopMetrics) LedgerError(string)         {}
func (nopMetrics) BudgetChecked()             {}
func (nopMetrics) BudgetAlertSent()           {}
func (nopMetrics) BudgetAlertFailed()         {}
func (nopMetrics) BudgetAlertSuppressed()     {}
func (nopMetrics) ReportGenerated()           {}
func (nopMetrics) ReportFailed()              {}
func (nopMetrics) ReconciliationRun()         {}
func (nopMetrics) ReconciliationDrift()       {}
