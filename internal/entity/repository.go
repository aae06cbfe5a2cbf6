package entity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles entity data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new entity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an entity and its initial members in one transaction
func (r *Repository) Create(ctx context.Context, name string, createdBy int64, members []NewMember) (*Entity, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entity := &Entity{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO entities (name, created_by)
		VALUES ($1, $2)
		RETURNING id, name, created_by, created_at
	`, name, createdBy).Scan(
		&entity.ID,
		&entity.Name,
		&entity.CreatedBy,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	for _, m := range members {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_members (entity_id, user_id, share)
			VALUES ($1, $2, $3)
		`, entity.ID, m.UserID, m.Share)
		if err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetWithMembers(ctx, entity.ID)
}

// GetWithMembers retrieves an entity and its members in insertion order
func (r *Repository) GetWithMembers(ctx context.Context, id int64) (*Entity, error) {
	entity := &Entity{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_by, created_at
		FROM entities
		WHERE id = $1
	`, id).Scan(
		&entity.ID,
		&entity.Name,
		&entity.CreatedBy,
		&entity.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	membersByEntity, err := r.membersForEntities(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	entity.Members = membersByEntity[id]

	return entity, nil
}

// ListForUser retrieves the entities the user created or belongs to,
// newest first, with members populated
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]*Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_by, created_at
		FROM entities e
		WHERE e.created_by = $1
		   OR EXISTS (
			SELECT 1 FROM entity_members em
			WHERE em.entity_id = e.id AND em.user_id = $1
		   )
		ORDER BY e.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []*Entity
	var ids []int64
	for rows.Next() {
		entity := &Entity{}
		if err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.CreatedBy,
			&entity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
		ids = append(ids, entity.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	if len(ids) == 0 {
		return entities, nil
	}

	membersByEntity, err := r.membersForEntities(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		entity.Members = membersByEntity[entity.ID]
	}

	return entities, nil
}

// MutateMembers runs a member mutation as one atomic transaction. The
// entity row is locked first, so concurrent mutations of the same entity
// serialize instead of both reading the same pre-state.
func (r *Repository) MutateMembers(ctx context.Context, entityID int64, fn MemberMutation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockEntity(ctx, tx, entityID); err != nil {
		return err
	}

	members, err := lockedMembers(ctx, tx, entityID)
	if err != nil {
		return err
	}

	writes, err := fn(members)
	if err != nil {
		return err
	}

	if len(writes.Remove) > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM entity_members WHERE id = ANY($1) AND entity_id = $2
		`, pq.Array(writes.Remove), entityID)
		if err != nil {
			return fmt.Errorf("failed to remove members: %w", err)
		}
	}

	for _, u := range writes.Updates {
		_, err = tx.ExecContext(ctx, `
			UPDATE entity_members SET share = $1 WHERE id = $2 AND entity_id = $3
		`, u.Share, u.MemberID, entityID)
		if err != nil {
			return fmt.Errorf("failed to update share: %w", err)
		}
	}

	if writes.Add != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_members (entity_id, user_id, share)
			VALUES ($1, $2, $3)
		`, entityID, writes.Add.UserID, writes.Add.Share)
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateSharedExpense inserts the shared expense and its full allocation
// set in one transaction. Members are read under the entity lock, so the
// split works on the shares a concurrent rebalance cannot be half done with.
func (r *Repository) CreateSharedExpense(ctx context.Context, exp NewSharedExpense, allocate AllocationFunc) (*SharedExpense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockEntity(ctx, tx, exp.EntityID); err != nil {
		return nil, err
	}

	members, err := lockedMembers(ctx, tx, exp.EntityID)
	if err != nil {
		return nil, err
	}

	allocations, err := allocate(members)
	if err != nil {
		return nil, err
	}

	var expenseID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO entity_expenses (entity_id, added_by, amount, description, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, exp.EntityID, exp.AddedBy, exp.Amount, exp.Description, exp.Date).Scan(&expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared expense: %w", err)
	}

	for _, a := range allocations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO expenses (user_id, amount, description, date, entity_expense_id, share_percentage, is_payer, is_settled)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, a.UserID, a.Amount, exp.Description, exp.Date, expenseID, a.SharePercentage, a.IsPayer, a.IsSettled)
		if err != nil {
			return nil, fmt.Errorf("failed to create allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.getSharedExpense(ctx, expenseID)
}

// ListSharedExpenses retrieves the shared expenses of an entity with their
// allocations, newest first
func (r *Repository) ListSharedExpenses(ctx context.Context, entityID int64) ([]*SharedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ee.id, ee.entity_id, ee.added_by, ee.amount, ee.description, ee.date, ee.created_at, u.name, u.email
		FROM entity_expenses ee
		JOIN users u ON ee.added_by = u.id
		WHERE ee.entity_id = $1
		ORDER BY ee.date DESC, ee.id DESC
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*SharedExpense
	var ids []int64
	for rows.Next() {
		exp := &SharedExpense{}
		if err := rows.Scan(
			&exp.ID,
			&exp.EntityID,
			&exp.AddedBy,
			&exp.Amount,
			&exp.Description,
			&exp.Date,
			&exp.CreatedAt,
			&exp.AddedByName,
			&exp.AddedByEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shared expense: %w", err)
		}
		expenses = append(expenses, exp)
		ids = append(ids, exp.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list shared expenses: %w", err)
	}

	if len(ids) == 0 {
		return expenses, nil
	}

	allocationsByExpense, err := r.allocationsForExpenses(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, exp := range expenses {
		exp.Allocations = allocationsByExpense[exp.ID]
	}

	return expenses, nil
}

func (r *Repository) getSharedExpense(ctx context.Context, id int64) (*SharedExpense, error) {
	exp := &SharedExpense{}
	err := r.db.QueryRowContext(ctx, `
		SELECT ee.id, ee.entity_id, ee.added_by, ee.amount, ee.description, ee.date, ee.created_at, u.name, u.email
		FROM entity_expenses ee
		JOIN users u ON ee.added_by = u.id
		WHERE ee.id = $1
	`, id).Scan(
		&exp.ID,
		&exp.EntityID,
		&exp.AddedBy,
		&exp.Amount,
		&exp.Description,
		&exp.Date,
		&exp.CreatedAt,
		&exp.AddedByName,
		&exp.AddedByEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shared expense: %w", err)
	}

	allocationsByExpense, err := r.allocationsForExpenses(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	exp.Allocations = allocationsByExpense[id]

	return exp, nil
}

func (r *Repository) membersForEntities(ctx context.Context, entityIDs []int64) (map[int64][]*Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT em.id, em.entity_id, em.user_id, em.share, u.name, u.email
		FROM entity_members em
		JOIN users u ON em.user_id = u.id
		WHERE em.entity_id = ANY($1)
		ORDER BY em.id
	`, pq.Array(entityIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	byEntity := make(map[int64][]*Member)
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(
			&m.ID,
			&m.EntityID,
			&m.UserID,
			&m.Share,
			&m.UserName,
			&m.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		byEntity[m.EntityID] = append(byEntity[m.EntityID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	return byEntity, nil
}

func (r *Repository) allocationsForExpenses(ctx context.Context, expenseIDs []int64) (map[int64][]*Allocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.entity_expense_id, e.user_id, e.amount, e.share_percentage, e.is_payer, e.is_settled, u.name, u.email
		FROM expenses e
		JOIN users u ON e.user_id = u.id
		WHERE e.entity_expense_id = ANY($1)
		ORDER BY e.id
	`, pq.Array(expenseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations: %w", err)
	}
	defer rows.Close()

	byExpense := make(map[int64][]*Allocation)
	for rows.Next() {
		a := &Allocation{}
		if err := rows.Scan(
			&a.ID,
			&a.SharedExpenseID,
			&a.UserID,
			&a.Amount,
			&a.SharePercentage,
			&a.IsPayer,
			&a.IsSettled,
			&a.UserName,
			&a.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		byExpense[a.SharedExpenseID] = append(byExpense[a.SharedExpenseID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get allocations: %w", err)
	}

	return byExpense, nil
}

// lockEntity takes the per-entity lock every mutating operation serializes on.
func lockEntity(ctx context.Context, tx *sql.Tx, entityID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM entities WHERE id = $1 FOR UPDATE
	`, entityID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrEntityNotFound
		}
		return fmt.Errorf("failed to lock entity: %w", err)
	}
	return nil
}

func lockedMembers(ctx context.Context, tx *sql.Tx, entityID int64) ([]*Member, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, entity_id, user_id, share
		FROM entity_members
		WHERE entity_id = $1
		ORDER BY id
		FOR UPDATE
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.EntityID, &m.UserID, &m.Share); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	return members, nil
}
