package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fintrack/fintrack/internal/domain"
)

const budgetColumns = `id, user_id, amount, last_alert_sent, created_at, updated_at`

// BudgetRepository implements usecase.BudgetRepository.
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Upsert creates or replaces the user's budget. One budget per user.
func (r *BudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	query := `
		INSERT INTO budgets (id, user_id, amount, last_alert_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		budget.ID,
		budget.UserID,
		decimalToNumeric(budget.Amount),
		budget.LastAlertSent,
		budget.CreatedAt,
		budget.UpdatedAt,
	)

	return err
}

// GetByUserID retrieves the user's budget.
func (r *BudgetRepository) GetByUserID(ctx context.Context, userID string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`

	return scanBudget(r.pool.QueryRow(ctx, query, userID))
}

// List retrieves all budgets with pagination.
func (r *BudgetRepository) List(ctx context.Context, limit, offset int) ([]*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets ORDER BY created_at LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}

	return budgets, rows.Err()
}

// UpdateLastAlertSent records when an alert was last dispatched.
func (r *BudgetRepository) UpdateLastAlertSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE budgets SET last_alert_sent = $2, updated_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}

	return nil
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		budget        domain.Budget
		amount        pgtype.Numeric
		lastAlertSent pgtype.Timestamptz
	)

	err := row.Scan(
		&budget.ID,
		&budget.UserID,
		&amount,
		&lastAlertSent,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}

	budget.Amount = numericToDecimal(amount)
	if lastAlertSent.Valid {
		t := lastAlertSent.Time
		budget.LastAlertSent = &t
	}

	return &budget, nil
}
