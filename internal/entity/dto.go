package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MemberShareInput names a user by email and assigns them a share.
type MemberShareInput struct {
	Email string          `json:"email" validate:"required,email"`
	Share decimal.Decimal `json:"share" validate:"required"`
}

// CreateEntityRequest represents the request to create a new entity
type CreateEntityRequest struct {
	Name    string             `json:"name" validate:"required,min=1,max=100"`
	Members []MemberShareInput `json:"members" validate:"required,min=1"`
}

// AddMemberRequest represents the request to add a member to an entity
type AddMemberRequest struct {
	Email string          `json:"email" validate:"required,email"`
	Share decimal.Decimal `json:"share" validate:"required"`
}

// UpdateShareRequest represents the request to change one member's share
type UpdateShareRequest struct {
	Share decimal.Decimal `json:"share" validate:"required"`
}

// CreateSharedExpenseRequest represents the request to record a shared
// expense. PaidByUserID overrides the payer; it defaults to the caller.
type CreateSharedExpenseRequest struct {
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Description  *string         `json:"description,omitempty"`
	Date         time.Time       `json:"date" validate:"required"`
	PaidByUserID *int64          `json:"paid_by_user_id,omitempty"`
}

func shareInRange(s decimal.Decimal) bool {
	return !s.IsNegative() && s.LessThanOrEqual(decimal.NewFromInt(100))
}

// Validate checks the create request before it reaches the service
func (r *CreateEntityRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if len(r.Members) == 0 {
		return errors.New("at least one member is required")
	}
	for _, m := range r.Members {
		if strings.TrimSpace(m.Email) == "" {
			return errors.New("member email is required")
		}
		if !shareInRange(m.Share) {
			return errors.New("share must be between 0 and 100")
		}
	}
	return nil
}

// Validate checks the add-member request
func (r *AddMemberRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if !shareInRange(r.Share) {
		return errors.New("share must be between 0 and 100")
	}
	return nil
}

// Validate checks the share update request
func (r *UpdateShareRequest) Validate() error {
	if !shareInRange(r.Share) {
		return errors.New("share must be between 0 and 100")
	}
	return nil
}

// Validate checks the shared expense request
func (r *CreateSharedExpenseRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// EntityResponse represents the response for an entity with its members
type EntityResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	CreatedBy int64             `json:"created_by"`
	CreatedAt string            `json:"created_at"`
	Members   []*MemberResponse `json:"members"`
}

// MemberResponse represents a member in an entity response
type MemberResponse struct {
	ID    int64           `json:"id"`
	Share decimal.Decimal `json:"share"`
	User  UserRef         `json:"user"`
}

// SharedExpenseResponse represents a shared expense with its allocations
type SharedExpenseResponse struct {
	ID          int64                 `json:"id"`
	Amount      decimal.Decimal       `json:"amount"`
	Description *string               `json:"description,omitempty"`
	Date        string                `json:"date"`
	AddedBy     UserRef               `json:"added_by"`
	Allocations []*AllocationResponse `json:"allocations"`
}

// AllocationResponse represents one member's slice of a shared expense
type AllocationResponse struct {
	ID        int64            `json:"id"`
	Amount    decimal.Decimal  `json:"amount"`
	Share     *decimal.Decimal `json:"share"`
	IsPayer   bool             `json:"is_payer"`
	IsSettled bool             `json:"is_settled"`
	User      UserRef          `json:"user"`
}

// ToResponse converts an Entity model to an EntityResponse DTO
func (e *Entity) ToResponse() *EntityResponse {
	resp := &EntityResponse{
		ID:        e.ID,
		Name:      e.Name,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		Members:   make([]*MemberResponse, len(e.Members)),
	}
	for i, m := range e.Members {
		resp.Members[i] = m.ToResponse()
	}
	return resp
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:    m.ID,
		Share: m.Share,
		User: UserRef{
			ID:    m.UserID,
			Name:  m.UserName,
			Email: m.UserEmail,
		},
	}
}

// ToResponse converts a SharedExpense model to its response DTO
func (se *SharedExpense) ToResponse() *SharedExpenseResponse {
	resp := &SharedExpenseResponse{
		ID:          se.ID,
		Amount:      se.Amount,
		Description: se.Description,
		Date:        se.Date.Format(time.RFC3339),
		AddedBy: UserRef{
			ID:    se.AddedBy,
			Name:  se.AddedByName,
			Email: se.AddedByEmail,
		},
		Allocations: make([]*AllocationResponse, len(se.Allocations)),
	}
	for i, a := range se.Allocations {
		resp.Allocations[i] = &AllocationResponse{
			ID:        a.ID,
			Amount:    a.Amount,
			Share:     a.SharePercentage,
			IsPayer:   a.IsPayer,
			IsSettled: a.IsSettled,
			User: UserRef{
				ID:    a.UserID,
				Name:  a.UserName,
				Email: a.UserEmail,
			},
		}
	}
	return resp
}
