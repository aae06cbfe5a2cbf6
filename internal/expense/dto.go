package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreateExpenseRequest represents the request to record an expense. When
// EntityID is set the expense is split across the group instead of being
// recorded as a personal row.
type CreateExpenseRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Description  *string         `json:"description,omitempty"`
	Date         time.Time       `json:"date" validate:"required"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	EntityID     *int64          `json:"entity_id,omitempty"`
	PaidByUserID *int64          `json:"paid_by_user_id,omitempty"`
}

// Validate checks the create request
func (r *CreateExpenseRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	if r.PaidByUserID != nil && r.EntityID == nil {
		return errors.New("paid_by_user_id requires entity_id")
	}
	if r.CategoryID != nil && r.EntityID != nil {
		return errors.New("category_id is not supported on shared expenses")
	}
	return nil
}
