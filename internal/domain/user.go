package domain

import "time"

// User is the owner of accounts, transactions and budgets. Identity
// resolution happens upstream; the ledger only needs the id and the
// notification address.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
