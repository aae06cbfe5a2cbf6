package income

import (
	"context"
	"errors"

	"github.com/mlucero/gastos/internal/category"
)

// Common errors
var (
	ErrIncomeNotFound    = errors.New("income not found")
	ErrWrongCategoryType = errors.New("category is not valid for incomes")
)

// Service handles income business logic
type Service struct {
	repo       *Repository
	categories *category.Service
}

// NewService creates a new income service
func NewService(repo *Repository, categories *category.Service) *Service {
	return &Service{repo: repo, categories: categories}
}

// Create records an income for the user
func (s *Service) Create(ctx context.Context, userID int64, req *CreateIncomeRequest) (*Income, error) {
	if req.CategoryID != nil {
		c, err := s.categories.UsableBy(ctx, *req.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if c.Type != category.TypeIncome {
			return nil, ErrWrongCategoryType
		}
	}

	return s.repo.Create(ctx, userID, req)
}

// List retrieves the user's incomes, paginated
func (s *Service) List(ctx context.Context, userID int64, page, pageSize int) ([]*Income, int, error) {
	offset := (page - 1) * pageSize
	return s.repo.ListByUserID(ctx, userID, pageSize, offset)
}

// Delete removes an income the user owns
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	income, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if income == nil || income.UserID != userID {
		return ErrIncomeNotFound
	}

	return s.repo.Delete(ctx, id)
}
