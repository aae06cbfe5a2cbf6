package income

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles income data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new income repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new income record
func (r *Repository) Create(ctx context.Context, userID int64, req *CreateIncomeRequest) (*Income, error) {
	query := `
		INSERT INTO incomes (user_id, amount, description, date, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, amount, description, date, category_id, created_at
	`

	income := &Income{}
	err := r.db.QueryRowContext(ctx, query, userID, req.Amount, req.Description, req.Date, req.CategoryID).Scan(
		&income.ID,
		&income.UserID,
		&income.Amount,
		&income.Description,
		&income.Date,
		&income.CategoryID,
		&income.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create income: %w", err)
	}

	return income, nil
}

// GetByID retrieves an income by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Income, error) {
	query := `
		SELECT id, user_id, amount, description, date, category_id, created_at
		FROM incomes
		WHERE id = $1
	`

	income := &Income{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&income.ID,
		&income.UserID,
		&income.Amount,
		&income.Description,
		&income.Date,
		&income.CategoryID,
		&income.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get income: %w", err)
	}

	return income, nil
}

// ListByUserID retrieves the user's incomes, newest first
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Income, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incomes WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incomes: %w", err)
	}

	query := `
		SELECT id, user_id, amount, description, date, category_id, created_at
		FROM incomes
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []*Income
	for rows.Next() {
		income := &Income{}
		if err := rows.Scan(
			&income.ID,
			&income.UserID,
			&income.Amount,
			&income.Description,
			&income.Date,
			&income.CategoryID,
			&income.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, income)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list incomes: %w", err)
	}

	return incomes, total, nil
}

// Delete removes an income record
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrIncomeNotFound
	}

	return nil
}
