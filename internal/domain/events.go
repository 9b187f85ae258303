package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
	EventTypeRecurringProcessed = "recurring.processed"
	EventTypeBudgetAlert        = "budget.alert"
	EventTypeReportGenerated    = "report.generated"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
	AggregateTypeBudget      = "budget"
	AggregateTypeUser        = "user"
)

// OutboxEvent represents an event recorded in the same atomic unit as the
// ledger mutation it describes, to be published asynchronously. Payloads are
// schemaless maps; consumers key off EventType.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
