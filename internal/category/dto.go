package category

import (
	"errors"
	"strings"
)

// CreateCategoryRequest represents the request to create a category
type CreateCategoryRequest struct {
	Name string       `json:"name" validate:"required,min=1,max=100"`
	Type CategoryType `json:"type" validate:"required"`
	Icon *string      `json:"icon,omitempty"`
}

// UpdateCategoryRequest represents the request to update a category
type UpdateCategoryRequest struct {
	Name *string       `json:"name,omitempty"`
	Type *CategoryType `json:"type,omitempty"`
	Icon *string       `json:"icon,omitempty"`
}

func validType(t CategoryType) bool {
	return t == TypeIncome || t == TypeExpense
}

// Validate checks the create request
func (r *CreateCategoryRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if !validType(r.Type) {
		return errors.New("type must be INCOME or EXPENSE")
	}
	return nil
}

// Validate checks the update request
func (r *UpdateCategoryRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if r.Type != nil && !validType(*r.Type) {
		return errors.New("type must be INCOME or EXPENSE")
	}
	return nil
}
