package expense

import (
	"context"
	"errors"

	"github.com/mlucero/gastos/internal/category"
)

// Common errors
var (
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrWrongCategoryType = errors.New("category is not valid for expenses")
	ErrNotAllocation     = errors.New("expense is not a shared allocation")
)

// Service handles personal expense business logic. Shared splits are the
// entity service's job; this service only sees the resulting allocation rows.
type Service struct {
	repo       *Repository
	categories *category.Service
}

// NewService creates a new expense service
func NewService(repo *Repository, categories *category.Service) *Service {
	return &Service{repo: repo, categories: categories}
}

// Create records a plain personal expense for the user
func (s *Service) Create(ctx context.Context, userID int64, req *CreateExpenseRequest) (*Expense, error) {
	if req.CategoryID != nil {
		c, err := s.categories.UsableBy(ctx, *req.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if c.Type != category.TypeExpense {
			return nil, ErrWrongCategoryType
		}
	}

	return s.repo.Create(ctx, userID, req)
}

// List retrieves the user's expenses, paginated
func (s *Service) List(ctx context.Context, userID int64, page, pageSize int) ([]*Expense, int, error) {
	offset := (page - 1) * pageSize
	return s.repo.ListByUserID(ctx, userID, pageSize, offset)
}

// Settle toggles the settled flag on an allocation row the user owns.
// The parent shared expense record is never touched.
func (s *Service) Settle(ctx context.Context, id, userID int64) (*Expense, error) {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil || expense.UserID != userID {
		return nil, ErrExpenseNotFound
	}
	if expense.EntityExpenseID == nil {
		return nil, ErrNotAllocation
	}

	return s.repo.SetSettled(ctx, id, !expense.IsSettled)
}

// Delete removes an expense the user owns. Deleting an allocation row leaves
// the parent shared expense intact.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expense == nil || expense.UserID != userID {
		return ErrExpenseNotFound
	}

	return s.repo.Delete(ctx, id)
}
