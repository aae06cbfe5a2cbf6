package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents one personal expense record. Rows created by a shared
// split carry the allocation fields: EntityExpenseID links the parent shared
// expense, SharePercentage is NULL on the payer's fronted record, and
// IsSettled tracks whether the member's slice has been paid back.
type Expense struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	Amount          decimal.Decimal  `json:"amount"`
	Description     *string          `json:"description,omitempty"`
	Date            time.Time        `json:"date"`
	CategoryID      *int64           `json:"category_id,omitempty"`
	EntityExpenseID *int64           `json:"entity_expense_id,omitempty"`
	SharePercentage *decimal.Decimal `json:"share_percentage,omitempty"`
	IsPayer         bool             `json:"is_payer"`
	IsSettled       bool             `json:"is_settled"`
	CreatedAt       time.Time        `json:"created_at"`
}
