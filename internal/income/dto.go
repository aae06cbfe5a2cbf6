package income

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreateIncomeRequest represents the request to record an income
type CreateIncomeRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Date        time.Time       `json:"date" validate:"required"`
	CategoryID  *int64          `json:"category_id,omitempty"`
}

// Validate checks the create request
func (r *CreateIncomeRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}
