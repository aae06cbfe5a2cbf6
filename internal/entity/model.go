package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity is a named collection of users who share expenses by percentage.
type Entity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// Populated by the repository where the caller needs them
	Members []*Member `json:"members,omitempty"`
}

// Member is a user's participation in one entity, carrying a percentage
// share. The shares of all members of an entity sum to 100.
type Member struct {
	ID       int64           `json:"id"`
	EntityID int64           `json:"entity_id"`
	UserID   int64           `json:"user_id"`
	Share    decimal.Decimal `json:"share"`

	// Populated from JOIN
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// SharedExpense is one recorded group expense event. It is immutable once
// created; later adjustments happen on the per-member allocations.
type SharedExpense struct {
	ID          int64           `json:"id"`
	EntityID    int64           `json:"entity_id"`
	AddedBy     int64           `json:"added_by"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`

	// Populated from JOIN
	AddedByName  string `json:"added_by_name,omitempty"`
	AddedByEmail string `json:"added_by_email,omitempty"`

	Allocations []*Allocation `json:"allocations,omitempty"`
}

// Allocation is one member's computed slice of a shared expense. The payer
// additionally gets a full-amount record with a nil share percentage,
// representing the money actually fronted.
type Allocation struct {
	ID              int64            `json:"id"`
	SharedExpenseID int64            `json:"shared_expense_id"`
	UserID          int64            `json:"user_id"`
	Amount          decimal.Decimal  `json:"amount"`
	SharePercentage *decimal.Decimal `json:"share_percentage"`
	IsPayer         bool             `json:"is_payer"`
	IsSettled       bool             `json:"is_settled"`

	// Populated from JOIN
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}
