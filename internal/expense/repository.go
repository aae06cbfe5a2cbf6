package expense

import (
	"context"
	"database/sql"
	"fmt"
)

const expenseColumns = `id, user_id, amount, description, date, category_id,
	entity_expense_id, share_percentage, is_payer, is_settled, created_at`

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new personal expense record
func (r *Repository) Create(ctx context.Context, userID int64, req *CreateExpenseRequest) (*Expense, error) {
	query := `
		INSERT INTO expenses (user_id, amount, description, date, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + expenseColumns

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, userID, req.Amount, req.Description, req.Date, req.CategoryID).Scan(
		scanTargets(expense)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return expense, nil
}

// GetByID retrieves an expense by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(scanTargets(expense)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// ListByUserID retrieves the user's expenses, newest first. Allocation rows
// from shared splits appear alongside plain personal expenses.
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense := &Expense{}
		if err := rows.Scan(scanTargets(expense)...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, total, nil
}

// SetSettled updates the settled flag on an expense row
func (r *Repository) SetSettled(ctx context.Context, id int64, settled bool) (*Expense, error) {
	query := `
		UPDATE expenses
		SET is_settled = $2
		WHERE id = $1
		RETURNING ` + expenseColumns

	expense := &Expense{}
	err := r.db.QueryRowContext(ctx, query, id, settled).Scan(scanTargets(expense)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	return expense, nil
}

// Delete removes an expense record
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

func scanTargets(e *Expense) []interface{} {
	return []interface{}{
		&e.ID,
		&e.UserID,
		&e.Amount,
		&e.Description,
		&e.Date,
		&e.CategoryID,
		&e.EntityExpenseID,
		&e.SharePercentage,
		&e.IsPayer,
		&e.IsSettled,
		&e.CreatedAt,
	}
}
