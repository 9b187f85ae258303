package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
)

const transactionColumns = `id, user_id, account_id, type, amount, description, date, category,
	status, is_recurring, recurring_interval, last_processed_at, next_recurring_date,
	created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new transaction within a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (
			id, user_id, account_id, type, amount, description, date, category,
			status, is_recurring, recurring_interval, last_processed_at,
			next_recurring_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := pgxTx.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.AccountID,
		string(txn.Type),
		decimalToNumeric(txn.Amount),
		txn.Description,
		txn.Date,
		txn.Category,
		string(txn.Status),
		txn.IsRecurring,
		string(txn.RecurringInterval),
		txn.LastProcessedAt,
		txn.NextRecurringDate,
		txn.CreatedAt,
		txn.UpdatedAt,
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a transaction by ID with a row lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	return scanTransaction(pgxTx.QueryRow(ctx, query, id))
}

// Update rewrites a transaction's mutable fields within a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE transactions
		SET type = $2, amount = $3, description = $4, date = $5, category = $6,
			status = $7, is_recurring = $8, recurring_interval = $9,
			last_processed_at = $10, next_recurring_date = $11, updated_at = $12
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		txn.ID,
		string(txn.Type),
		decimalToNumeric(txn.Amount),
		txn.Description,
		txn.Date,
		txn.Category,
		string(txn.Status),
		txn.IsRecurring,
		string(txn.RecurringInterval),
		txn.LastProcessedAt,
		txn.NextRecurringDate,
		txn.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction within a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// UpdateSchedule advances a recurring template's schedule within a
// transaction.
func (r *TransactionRepository) UpdateSchedule(ctx context.Context, tx usecase.Transaction, id string, lastProcessedAt, nextRecurringDate time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE transactions
		SET last_processed_at = $2, next_recurring_date = $3, updated_at = $2
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, lastProcessedAt, nextRecurringDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByAccount lists an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByUserBetween lists a user's transactions dated within [start, end].
func (r *TransactionRepository) ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListDueTemplates returns every recurring template due at now: completed,
// and either never processed or scheduled at or before now.
func (r *TransactionRepository) ListDueTemplates(ctx context.Context, now time.Time) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE is_recurring
			AND status = 'COMPLETED'
			AND (last_processed_at IS NULL OR next_recurring_date <= $1)
		ORDER BY next_recurring_date NULLS FIRST
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SumExpensesForAccount sums expense amounts on an account within [start, end].
func (r *TransactionRepository) SumExpensesForAccount(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND type = 'EXPENSE' AND date >= $2 AND date <= $3
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountID, start, end).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumSignedByAccount computes the signed sum of an account's transactions:
// income positive, expenses negative.
func (r *TransactionRepository) SumSignedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN -amount ELSE amount END), 0)
		FROM transactions
		WHERE account_id = $1
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn               domain.Transaction
		txnType           string
		amount            pgtype.Numeric
		status            string
		recurringInterval string
		lastProcessedAt   pgtype.Timestamptz
		nextRecurringDate pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.AccountID,
		&txnType,
		&amount,
		&txn.Description,
		&txn.Date,
		&txn.Category,
		&status,
		&txn.IsRecurring,
		&recurringInterval,
		&lastProcessedAt,
		&nextRecurringDate,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Amount = numericToDecimal(amount)
	txn.Status = domain.TransactionStatus(status)
	txn.RecurringInterval = domain.RecurringInterval(recurringInterval)
	if lastProcessedAt.Valid {
		t := lastProcessedAt.Time
		txn.LastProcessedAt = &t
	}
	if nextRecurringDate.Valid {
		t := nextRecurringDate.Time
		txn.NextRecurringDate = &t
	}

	return &txn, nil
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
