package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlucero/gastos/internal/entity/share"
)

// Common errors
var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrUserNotFound     = errors.New("no registered user for that email")
	ErrNotOwner         = errors.New("only the entity creator can manage members")
	ErrNotMember        = errors.New("you do not belong to this entity")
	ErrDuplicateMember  = errors.New("user is already a member of this entity")
	ErrDuplicateEmails  = errors.New("duplicate emails are not allowed")
	ErrCreatorNotMember = errors.New("the creator must be included as a member")
	ErrShareTotal       = errors.New("member shares must sum to 100")
	ErrPayerNotMember   = errors.New("the designated payer is not a member")
)

// UserRef identifies a user referenced from entity responses and lookups.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserDirectory resolves registered users by email. Implemented by the user
// feature; wired in main.
type UserDirectory interface {
	// ByEmail returns nil when no user is registered under email.
	ByEmail(ctx context.Context, email string) (*UserRef, error)
}

// NewMember is a member to insert.
type NewMember struct {
	UserID int64
	Share  decimal.Decimal
}

// ShareUpdate reassigns one member's share.
type ShareUpdate struct {
	MemberID int64
	Share    decimal.Decimal
}

// MemberWrites is the set of writes a member mutation produces. The store
// applies all of them, plus the implied member deletions, in one atomic
// transaction against the locked pre-state.
type MemberWrites struct {
	Add     *NewMember
	Updates []ShareUpdate
	Remove  []int64
}

// MemberMutation inspects the locked members of an entity (in insertion
// order) and decides the writes to apply. Returning an error aborts the
// transaction without touching the stored state.
type MemberMutation func(members []*Member) (*MemberWrites, error)

// NewSharedExpense carries the immutable fields of a shared expense.
type NewSharedExpense struct {
	EntityID    int64
	AddedBy     int64
	Amount      decimal.Decimal
	Description *string
	Date        time.Time
}

// NewAllocation is one allocation row to create for a shared expense.
type NewAllocation struct {
	UserID          int64
	Amount          decimal.Decimal
	SharePercentage *decimal.Decimal
	IsPayer         bool
	IsSettled       bool
}

// AllocationFunc computes the full allocation set for a shared expense from
// the locked members. All allocations are created together or not at all.
type AllocationFunc func(members []*Member) ([]NewAllocation, error)

// Store handles entity persistence. Mutations take a computing callback so
// the engine works on the same snapshot the transaction locks.
type Store interface {
	Create(ctx context.Context, name string, createdBy int64, members []NewMember) (*Entity, error)
	GetWithMembers(ctx context.Context, id int64) (*Entity, error)
	ListForUser(ctx context.Context, userID int64) ([]*Entity, error)
	MutateMembers(ctx context.Context, entityID int64, fn MemberMutation) error
	CreateSharedExpense(ctx context.Context, exp NewSharedExpense, allocate AllocationFunc) (*SharedExpense, error)
	ListSharedExpenses(ctx context.Context, entityID int64) ([]*SharedExpense, error)
}

// Service handles entity business logic
type Service struct {
	store Store
	users UserDirectory
}

// NewService creates a new entity service
func NewService(store Store, users UserDirectory) *Service {
	return &Service{store: store, users: users}
}

// Create creates an entity with its initial member set. Shares must sum to
// 100 and the creator must be among the members.
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateEntityRequest) (*Entity, error) {
	type candidate struct {
		email string
		share decimal.Decimal
	}

	seen := make(map[string]bool, len(req.Members))
	candidates := make([]candidate, 0, len(req.Members))
	shares := make([]decimal.Decimal, 0, len(req.Members))
	for _, m := range req.Members {
		email := strings.ToLower(strings.TrimSpace(m.Email))
		if seen[email] {
			return nil, ErrDuplicateEmails
		}
		seen[email] = true
		candidates = append(candidates, candidate{email: email, share: m.Share})
		shares = append(shares, m.Share)
	}

	if !share.ValidTotal(shares) {
		return nil, ErrShareTotal
	}

	members := make([]NewMember, len(candidates))
	creatorIncluded := false
	for i, c := range candidates {
		u, err := s.users.ByEmail(ctx, c.email)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
		if u.ID == creatorID {
			creatorIncluded = true
		}
		members[i] = NewMember{UserID: u.ID, Share: c.share}
	}
	if !creatorIncluded {
		return nil, ErrCreatorNotMember
	}

	return s.store.Create(ctx, strings.TrimSpace(req.Name), creatorID, members)
}

// List retrieves the entities the user created or belongs to
func (s *Service) List(ctx context.Context, userID int64) ([]*Entity, error) {
	return s.store.ListForUser(ctx, userID)
}

// GetForMember retrieves an entity the user belongs to
func (s *Service) GetForMember(ctx context.Context, entityID, userID int64) (*Entity, error) {
	return s.requireMember(ctx, entityID, userID)
}

// AddMember adds a registered user to the entity with the given share. The
// engine does not rebalance on add: the caller picks a share that keeps the
// total at 100, or the operation is rejected.
func (s *Service) AddMember(ctx context.Context, entityID, callerID int64, req *AddMemberRequest) (*Entity, error) {
	if _, err := s.requireOwner(ctx, entityID, callerID); err != nil {
		return nil, err
	}

	u, err := s.users.ByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	err = s.store.MutateMembers(ctx, entityID, func(members []*Member) (*MemberWrites, error) {
		shares := make([]decimal.Decimal, 0, len(members)+1)
		for _, m := range members {
			if m.UserID == u.ID {
				return nil, ErrDuplicateMember
			}
			shares = append(shares, m.Share)
		}
		if !share.ValidTotal(append(shares, req.Share)) {
			return nil, ErrShareTotal
		}
		return &MemberWrites{Add: &NewMember{UserID: u.ID, Share: req.Share}}, nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, entityID)
}

// UpdateMemberShare replaces one member's share, holding all others fixed.
// Rejected when the new total deviates from 100; no partial write happens.
func (s *Service) UpdateMemberShare(ctx context.Context, entityID, memberID, callerID int64, req *UpdateShareRequest) (*Entity, error) {
	if _, err := s.requireOwner(ctx, entityID, callerID); err != nil {
		return nil, err
	}

	err := s.store.MutateMembers(ctx, entityID, func(members []*Member) (*MemberWrites, error) {
		found := false
		shares := make([]decimal.Decimal, len(members))
		for i, m := range members {
			if m.ID == memberID {
				found = true
				shares[i] = req.Share
			} else {
				shares[i] = m.Share
			}
		}
		if !found {
			return nil, ErrMemberNotFound
		}
		if !share.ValidTotal(shares) {
			return nil, ErrShareTotal
		}
		return &MemberWrites{Updates: []ShareUpdate{{MemberID: memberID, Share: req.Share}}}, nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, entityID)
}

// RemoveMember removes a member and rebalances the remaining shares so they
// sum to exactly 100 again. Removal and all share updates commit together.
func (s *Service) RemoveMember(ctx context.Context, entityID, memberID, callerID int64) (*Entity, error) {
	if _, err := s.requireOwner(ctx, entityID, callerID); err != nil {
		return nil, err
	}

	err := s.store.MutateMembers(ctx, entityID, func(members []*Member) (*MemberWrites, error) {
		if len(members) < 2 {
			return nil, share.ErrLastMember
		}

		removed := -1
		shares := make([]decimal.Decimal, len(members))
		for i, m := range members {
			if m.ID == memberID {
				removed = i
			}
			shares[i] = m.Share
		}
		if removed == -1 {
			return nil, ErrMemberNotFound
		}

		rebalanced, err := share.Rebalance(shares, removed)
		if err != nil {
			return nil, err
		}

		writes := &MemberWrites{Remove: []int64{memberID}}
		i := 0
		for _, m := range members {
			if m.ID == memberID {
				continue
			}
			writes.Updates = append(writes.Updates, ShareUpdate{MemberID: m.ID, Share: rebalanced[i]})
			i++
		}
		return writes, nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, entityID)
}

// CreateExpense records a shared expense and splits it across the members
// by their stored shares. The payer defaults to the caller; an explicit
// override must name a member. The payer's full-amount record plus every
// member's proportional slice are created atomically.
func (s *Service) CreateExpense(ctx context.Context, entityID, callerID int64, req *CreateSharedExpenseRequest) (*SharedExpense, error) {
	ent, err := s.requireMember(ctx, entityID, callerID)
	if err != nil {
		return nil, err
	}

	payerID := callerID
	if req.PaidByUserID != nil {
		payerID = *req.PaidByUserID
		isMember := false
		for _, m := range ent.Members {
			if m.UserID == payerID {
				isMember = true
				break
			}
		}
		if !isMember {
			return nil, ErrPayerNotMember
		}
	}

	exp := NewSharedExpense{
		EntityID:    entityID,
		AddedBy:     callerID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}

	return s.store.CreateSharedExpense(ctx, exp, func(members []*Member) ([]NewAllocation, error) {
		if len(members) == 0 {
			return nil, share.ErrNoShares
		}

		shares := make([]decimal.Decimal, len(members))
		for i, m := range members {
			shares[i] = m.Share
		}

		amounts, err := share.Split(req.Amount, shares)
		if err != nil {
			return nil, err
		}

		// Full amount fronted by the payer, reconciled against the
		// proportional slices below.
		allocations := make([]NewAllocation, 0, len(members)+1)
		allocations = append(allocations, NewAllocation{
			UserID:    payerID,
			Amount:    req.Amount,
			IsPayer:   true,
			IsSettled: true,
		})

		for i, m := range members {
			pct := m.Share
			allocations = append(allocations, NewAllocation{
				UserID:          m.UserID,
				Amount:          amounts[i],
				SharePercentage: &pct,
				IsPayer:         m.UserID == payerID,
				IsSettled:       m.UserID == payerID,
			})
		}
		return allocations, nil
	})
}

// ListExpenses retrieves the shared expenses of an entity the user belongs to
func (s *Service) ListExpenses(ctx context.Context, entityID, userID int64) ([]*SharedExpense, error) {
	if _, err := s.requireMember(ctx, entityID, userID); err != nil {
		return nil, err
	}
	return s.store.ListSharedExpenses(ctx, entityID)
}

func (s *Service) reload(ctx context.Context, entityID int64) (*Entity, error) {
	ent, err := s.store.GetWithMembers(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, ErrEntityNotFound
	}
	return ent, nil
}

func (s *Service) requireOwner(ctx context.Context, entityID, userID int64) (*Entity, error) {
	ent, err := s.reload(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if ent.CreatedBy != userID {
		return nil, ErrNotOwner
	}
	return ent, nil
}

func (s *Service) requireMember(ctx context.Context, entityID, userID int64) (*Entity, error) {
	ent, err := s.reload(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if ent.CreatedBy == userID {
		return ent, nil
	}
	for _, m := range ent.Members {
		if m.UserID == userID {
			return ent, nil
		}
	}
	return nil, ErrNotMember
}
