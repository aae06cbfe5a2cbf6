package category

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateName    = errors.New("a category with that name already exists")
	ErrDefaultReadOnly  = errors.New("default categories cannot be modified")
	ErrNotAuthorized    = errors.New("not authorized to modify this category")
)

// Service handles category business logic
type Service struct {
	repo *Repository
}

// NewService creates a new category service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a category owned by the user
func (s *Service) Create(ctx context.Context, userID int64, req *CreateCategoryRequest) (*Category, error) {
	duplicate, err := s.repo.GetByName(ctx, userID, req.Name)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, ErrDuplicateName
	}

	return s.repo.Create(ctx, userID, req)
}

// List retrieves the user's categories plus the global defaults
func (s *Service) List(ctx context.Context, userID int64) ([]*Category, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Update modifies a category the user owns
func (s *Service) Update(ctx context.Context, id, userID int64, req *UpdateCategoryRequest) (*Category, error) {
	existing, err := s.ownedBy(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != existing.Name {
		duplicate, err := s.repo.GetByName(ctx, userID, *req.Name)
		if err != nil {
			return nil, err
		}
		if duplicate != nil {
			return nil, ErrDuplicateName
		}
	}

	return s.repo.Update(ctx, id, req)
}

// Delete removes a category the user owns
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.ownedBy(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UsableBy reports whether the user may attach the category to a record.
// Global defaults are usable by everyone.
func (s *Service) UsableBy(ctx context.Context, id, userID int64) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	if c.UserID != nil && *c.UserID != userID {
		return nil, ErrNotAuthorized
	}
	return c, nil
}

func (s *Service) ownedBy(ctx context.Context, id, userID int64) (*Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCategoryNotFound
	}
	if c.UserID == nil {
		return nil, ErrDefaultReadOnly
	}
	if *c.UserID != userID {
		return nil, ErrNotAuthorized
	}
	return c, nil
}
