package category

// CategoryType separates income categories from expense categories
type CategoryType string

const (
	TypeIncome  CategoryType = "INCOME"
	TypeExpense CategoryType = "EXPENSE"
)

// Category labels incomes and expenses. Rows without an owner are global
// defaults, readable by everyone and immutable.
type Category struct {
	ID     int64        `json:"id"`
	UserID *int64       `json:"user_id,omitempty"`
	Name   string       `json:"name"`
	Type   CategoryType `json:"type"`
	Icon   *string      `json:"icon,omitempty"`
}
