package category

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles category data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new category repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new category owned by the user
func (r *Repository) Create(ctx context.Context, userID int64, req *CreateCategoryRequest) (*Category, error) {
	query := `
		INSERT INTO categories (user_id, name, type, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, type, icon
	`

	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, userID, req.Name, req.Type, req.Icon).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Type,
		&c.Icon,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return c, nil
}

// GetByID retrieves a category by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Category, error) {
	query := `
		SELECT id, user_id, name, type, icon
		FROM categories
		WHERE id = $1
	`

	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Type,
		&c.Icon,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// GetByName retrieves the user's category with the given name
func (r *Repository) GetByName(ctx context.Context, userID int64, name string) (*Category, error) {
	query := `
		SELECT id, user_id, name, type, icon
		FROM categories
		WHERE user_id = $1 AND name = $2
	`

	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, userID, name).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Type,
		&c.Icon,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// ListForUser retrieves the user's categories plus the global defaults
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]*Category, error) {
	query := `
		SELECT id, user_id, name, type, icon
		FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

// Update modifies an existing category
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateCategoryRequest) (*Category, error) {
	query := `
		UPDATE categories
		SET name = COALESCE($2, name),
		    type = COALESCE($3, type),
		    icon = COALESCE($4, icon)
		WHERE id = $1
		RETURNING id, user_id, name, type, icon
	`

	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Type, req.Icon).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Type,
		&c.Icon,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return c, nil
}

// Delete removes a category
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
