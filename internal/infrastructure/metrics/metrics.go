package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsCreated prometheus.Counter
	TransactionsUpdated prometheus.Counter
	TransactionsDeleted prometheus.Counter
	TransactionAmount   prometheus.Histogram
	LedgerErrors        *prometheus.CounterVec

	// Account metrics
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Recurring scheduler metrics
	RecurringDetectedTotal  prometheus.Counter
	RecurringProcessedTotal prometheus.Counter
	RecurringSkippedTotal   prometheus.Counter
	RecurringDeferredTotal  prometheus.Counter
	RecurringFailedTotal    prometheus.Counter
	DispatchDuration        prometheus.Histogram

	// Budget metrics
	BudgetChecksTotal     prometheus.Counter
	BudgetAlertsSent      prometheus.Counter
	BudgetAlertsFailed    prometheus.Counter
	BudgetAlertsSuppressed prometheus.Counter

	// Report metrics
	ReportsGenerated prometheus.Counter
	ReportsFailed    prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns   prometheus.Counter
	ReconciliationDrifts prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Outbox metrics
	OutboxPublished     prometheus.Counter
	OutboxPublishErrors prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Ledger metrics
		TransactionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_created_total",
			Help: "Total number of transactions created",
		}),
		TransactionsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_updated_total",
			Help: "Total number of transactions amended",
		}),
		TransactionsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),
		TransactionAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_ledger_errors_total",
				Help: "Total number of ledger errors by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Recurring scheduler metrics
		RecurringDetectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_detected_total",
			Help: "Total recurring templates detected as due",
		}),
		RecurringProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_processed_total",
			Help: "Total recurring occurrences materialized",
		}),
		RecurringSkippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_skipped_total",
			Help: "Total recurring templates skipped as no longer due",
		}),
		RecurringDeferredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_deferred_total",
			Help: "Total recurring templates deferred by the per-user throttle",
		}),
		RecurringFailedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_failed_total",
			Help: "Total recurring processing failures",
		}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_dispatch_duration_seconds",
			Help:    "Duration of recurring dispatch passes",
			Buckets: prometheus.DefBuckets,
		}),

		// Budget metrics
		BudgetChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_budget_checks_total",
			Help: "Total budgets evaluated",
		}),
		BudgetAlertsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_budget_alerts_sent_total",
			Help: "Total budget alerts dispatched",
		}),
		BudgetAlertsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_budget_alerts_failed_total",
			Help: "Total budget alert dispatch failures",
		}),
		BudgetAlertsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_budget_alerts_suppressed_total",
			Help: "Total budget alerts suppressed by the monthly guard",
		}),

		// Report metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_reports_generated_total",
			Help: "Total monthly reports generated",
		}),
		ReportsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_reports_failed_total",
			Help: "Total monthly report failures",
		}),

		// Reconciliation metrics
		ReconciliationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_reconciliation_runs_total",
			Help: "Total reconciliation passes",
		}),
		ReconciliationDrifts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_reconciliation_drifts_total",
			Help: "Total accounts found with a drifted cached balance",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fintrack_db_connections",
			Help: "Current number of database connections",
		}),

		// Outbox metrics
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_outbox_publish_errors_total",
			Help: "Total outbox publish errors",
		}),
	}
}

// RecurringDetected implements the scheduler metrics hook.
func (m *Metrics) RecurringDetected(n int) {
	m.RecurringDetectedTotal.Add(float64(n))
}

// RecurringProcessed implements the scheduler metrics hook.
func (m *Metrics) RecurringProcessed() {
	m.RecurringProcessedTotal.Inc()
}

// RecurringSkipped implements the scheduler metrics hook.
func (m *Metrics) RecurringSkipped() {
	m.RecurringSkippedTotal.Inc()
}

// RecurringDeferred implements the scheduler metrics hook.
func (m *Metrics) RecurringDeferred() {
	m.RecurringDeferredTotal.Inc()
}

// RecurringFailed implements the scheduler metrics hook.
func (m *Metrics) RecurringFailed() {
	m.RecurringFailedTotal.Inc()
}

// DispatchObserved implements the scheduler metrics hook.
func (m *Metrics) DispatchObserved(seconds float64) {
	m.DispatchDuration.Observe(seconds)
}

// AccountCreated implements the account metrics hook.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
	m.AccountOperations.WithLabelValues("create").Inc()
}

// AccountOperation implements the account metrics hook.
func (m *Metrics) AccountOperation(op string) {
	m.AccountOperations.WithLabelValues(op).Inc()
}

// TransactionCreated implements the ledger metrics hook.
func (m *Metrics) TransactionCreated(amount float64) {
	m.TransactionsCreated.Inc()
	m.TransactionAmount.Observe(amount)
}

// TransactionUpdated implements the ledger metrics hook.
func (m *Metrics) TransactionUpdated() {
	m.TransactionsUpdated.Inc()
}

// TransactionDeleted implements the ledger metrics hook.
func (m *Metrics) TransactionDeleted() {
	m.TransactionsDeleted.Inc()
}

// LedgerError implements the ledger metrics hook.
func (m *Metrics) LedgerError(op string) {
	m.LedgerErrors.WithLabelValues(op).Inc()
}

// BudgetChecked implements the budget metrics hook.
func (m *Metrics) BudgetChecked() {
	m.BudgetChecksTotal.Inc()
}

// BudgetAlertSent implements the budget metrics hook.
func (m *Metrics) BudgetAlertSent() {
	m.BudgetAlertsSent.Inc()
}

// BudgetAlertFailed implements the budget metrics hook.
func (m *Metrics) BudgetAlertFailed() {
	m.BudgetAlertsFailed.Inc()
}

// BudgetAlertSuppressed implements the budget metrics hook.
func (m *Metrics) BudgetAlertSuppressed() {
	m.BudgetAlertsSuppressed.Inc()
}

// ReportGenerated implements the report metrics hook.
func (m *Metrics) ReportGenerated() {
	m.ReportsGenerated.Inc()
}

// ReportFailed implements the report metrics hook.
func (m *Metrics) ReportFailed() {
	m.ReportsFailed.Inc()
}

// ReconciliationRun implements the reconciliation metrics hook.
func (m *Metrics) ReconciliationRun() {
	m.ReconciliationRuns.Inc()
}

// ReconciliationDrift implements the reconciliation metrics hook.
func (m *Metrics) ReconciliationDrift() {
	m.ReconciliationDrifts.Inc()
}

// OutboxEventPublished implements the event publisher metrics hook.
func (m *Metrics) OutboxEventPublished() {
	m.OutboxPublished.Inc()
}

// OutboxPublishError implements the event publisher metrics hook.
func (m *Metrics) OutboxPublishError() {
	m.OutboxPublishErrors.Inc()
}
