package entity

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlucero/gastos/internal/entity/share"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeStore keeps a single entity in memory and applies mutations the same
// all-or-nothing way the SQL repository does.
type fakeStore struct {
	entity   *Entity
	members  []*Member
	nextID   int64
	expenses []*SharedExpense
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) Create(_ context.Context, name string, createdBy int64, members []NewMember) (*Entity, error) {
	f.entity = &Entity{ID: f.id(), Name: name, CreatedBy: createdBy, CreatedAt: time.Now()}
	for _, m := range members {
		f.members = append(f.members, &Member{
			ID:       f.id(),
			EntityID: f.entity.ID,
			UserID:   m.UserID,
			Share:    m.Share,
		})
	}
	return f.GetWithMembers(context.Background(), f.entity.ID)
}

func (f *fakeStore) GetWithMembers(_ context.Context, id int64) (*Entity, error) {
	if f.entity == nil || f.entity.ID != id {
		return nil, nil
	}
	ent := *f.entity
	ent.Members = append([]*Member(nil), f.members...)
	return &ent, nil
}

func (f *fakeStore) ListForUser(ctx context.Context, userID int64) ([]*Entity, error) {
	if f.entity == nil {
		return nil, nil
	}
	ent, err := f.GetWithMembers(ctx, f.entity.ID)
	if err != nil || ent == nil {
		return nil, err
	}
	if ent.CreatedBy == userID {
		return []*Entity{ent}, nil
	}
	for _, m := range ent.Members {
		if m.UserID == userID {
			return []*Entity{ent}, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) MutateMembers(_ context.Context, entityID int64, fn MemberMutation) error {
	if f.entity == nil || f.entity.ID != entityID {
		return ErrEntityNotFound
	}

	writes, err := fn(append([]*Member(nil), f.members...))
	if err != nil {
		return err
	}

	remove := make(map[int64]bool, len(writes.Remove))
	for _, id := range writes.Remove {
		remove[id] = true
	}
	kept := f.members[:0]
	for _, m := range f.members {
		if !remove[m.ID] {
			kept = append(kept, m)
		}
	}
	f.members = kept

	for _, u := range writes.Updates {
		for _, m := range f.members {
			if m.ID == u.MemberID {
				m.Share = u.Share
			}
		}
	}

	if writes.Add != nil {
		f.members = append(f.members, &Member{
			ID:       f.id(),
			EntityID: entityID,
			UserID:   writes.Add.UserID,
			Share:    writes.Add.Share,
		})
	}

	return nil
}

func (f *fakeStore) CreateSharedExpense(_ context.Context, exp NewSharedExpense, allocate AllocationFunc) (*SharedExpense, error) {
	if f.entity == nil || f.entity.ID != exp.EntityID {
		return nil, ErrEntityNotFound
	}

	allocations, err := allocate(append([]*Member(nil), f.members...))
	if err != nil {
		return nil, err
	}

	created := &SharedExpense{
		ID:          f.id(),
		EntityID:    exp.EntityID,
		AddedBy:     exp.AddedBy,
		Amount:      exp.Amount,
		Description: exp.Description,
		Date:        exp.Date,
		CreatedAt:   time.Now(),
	}
	for _, a := range allocations {
		created.Allocations = append(created.Allocations, &Allocation{
			ID:              f.id(),
			SharedExpenseID: created.ID,
			UserID:          a.UserID,
			Amount:          a.Amount,
			SharePercentage: a.SharePercentage,
			IsPayer:         a.IsPayer,
			IsSettled:       a.IsSettled,
		})
	}
	f.expenses = append(f.expenses, created)
	return created, nil
}

func (f *fakeStore) ListSharedExpenses(_ context.Context, entityID int64) ([]*SharedExpense, error) {
	if f.entity == nil || f.entity.ID != entityID {
		return nil, ErrEntityNotFound
	}
	return append([]*SharedExpense(nil), f.expenses...), nil
}

type fakeDirectory map[string]*UserRef

func (f fakeDirectory) ByEmail(_ context.Context, email string) (*UserRef, error) {
	return f[email], nil
}

var testUsers = fakeDirectory{
	"ana@example.com":   {ID: 1, Name: "Ana", Email: "ana@example.com"},
	"bruno@example.com": {ID: 2, Name: "Bruno", Email: "bruno@example.com"},
	"carla@example.com": {ID: 3, Name: "Carla", Email: "carla@example.com"},
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, testUsers), store
}

func createTestEntity(t *testing.T, svc *Service, shares ...string) *Entity {
	t.Helper()
	emails := []string{"ana@example.com", "bruno@example.com", "carla@example.com"}
	members := make([]MemberShareInput, len(shares))
	for i, s := range shares {
		members[i] = MemberShareInput{Email: emails[i], Share: dec(s)}
	}
	ent, err := svc.Create(context.Background(), 1, &CreateEntityRequest{Name: "Casa", Members: members})
	require.NoError(t, err)
	return ent
}

func shareValues(ent *Entity) []string {
	out := make([]string, len(ent.Members))
	for i, m := range ent.Members {
		out[i] = m.Share.String()
	}
	return out
}

func TestCreateEntity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		assert.Equal(t, int64(1), ent.CreatedBy)
		require.Len(t, ent.Members, 2)
		assert.True(t, ent.Members[0].Share.Equal(dec("60")))
	})

	t.Run("shares must sum to 100", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, 1, &CreateEntityRequest{Name: "Casa", Members: []MemberShareInput{
			{Email: "ana@example.com", Share: dec("60")},
			{Email: "bruno@example.com", Share: dec("50")},
		}})
		assert.ErrorIs(t, err, ErrShareTotal)
	})

	t.Run("duplicate emails rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, 1, &CreateEntityRequest{Name: "Casa", Members: []MemberShareInput{
			{Email: "ana@example.com", Share: dec("50")},
			{Email: "ANA@example.com", Share: dec("50")},
		}})
		assert.ErrorIs(t, err, ErrDuplicateEmails)
	})

	t.Run("creator must be a member", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, 3, &CreateEntityRequest{Name: "Casa", Members: []MemberShareInput{
			{Email: "ana@example.com", Share: dec("50")},
			{Email: "bruno@example.com", Share: dec("50")},
		}})
		assert.ErrorIs(t, err, ErrCreatorNotMember)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, 1, &CreateEntityRequest{Name: "Casa", Members: []MemberShareInput{
			{Email: "ana@example.com", Share: dec("50")},
			{Email: "nobody@example.com", Share: dec("50")},
		}})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("no compensating adjustment is rejected", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.AddMember(ctx, ent.ID, 1, &AddMemberRequest{Email: "carla@example.com", Share: dec("10")})
		assert.ErrorIs(t, err, ErrShareTotal)
	})

	t.Run("zero share keeps total valid", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		updated, err := svc.AddMember(ctx, ent.ID, 1, &AddMemberRequest{Email: "carla@example.com", Share: dec("0")})
		require.NoError(t, err)
		assert.Len(t, updated.Members, 3)
	})

	t.Run("only the creator may add", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.AddMember(ctx, ent.ID, 2, &AddMemberRequest{Email: "carla@example.com", Share: dec("0")})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("existing member rejected", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.AddMember(ctx, ent.ID, 1, &AddMemberRequest{Email: "bruno@example.com", Share: dec("0")})
		assert.ErrorIs(t, err, ErrDuplicateMember)
	})
}

func TestUpdateMemberShare(t *testing.T) {
	ctx := context.Background()

	t.Run("total must hold", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.UpdateMemberShare(ctx, ent.ID, ent.Members[0].ID, 1, &UpdateShareRequest{Share: dec("70")})
		assert.ErrorIs(t, err, ErrShareTotal)

		// prior state unchanged
		reloaded, err := svc.GetForMember(ctx, ent.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"60", "40"}, shareValues(reloaded))
	})

	t.Run("swap shares across two updates", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.UpdateMemberShare(ctx, ent.ID, ent.Members[0].ID, 1, &UpdateShareRequest{Share: dec("60.01")})
		require.NoError(t, err) // 100.01 is within tolerance
		updated, err := svc.UpdateMemberShare(ctx, ent.ID, ent.Members[1].ID, 1, &UpdateShareRequest{Share: dec("39.99")})
		require.NoError(t, err)
		assert.Equal(t, []string{"60.01", "39.99"}, shareValues(updated))
	})

	t.Run("unknown member", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.UpdateMemberShare(ctx, ent.ID, 9999, 1, &UpdateShareRequest{Share: dec("60")})
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})

	t.Run("only the creator may update", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.UpdateMemberShare(ctx, ent.ID, ent.Members[0].ID, 2, &UpdateShareRequest{Share: dec("60")})
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()

	t.Run("proportional rescale", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "50", "30", "20")
		updated, err := svc.RemoveMember(ctx, ent.ID, ent.Members[1].ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"71.43", "28.57"}, shareValues(updated))
	})

	t.Run("equal cut when remaining shares are zero", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "0", "0", "100")
		updated, err := svc.RemoveMember(ctx, ent.ID, ent.Members[2].ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"50", "50"}, shareValues(updated))
	})

	t.Run("last member cannot be removed", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "100")
		_, err := svc.RemoveMember(ctx, ent.ID, ent.Members[0].ID, 1)
		assert.ErrorIs(t, err, share.ErrLastMember)
	})

	t.Run("single survivor gets 100", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		updated, err := svc.RemoveMember(ctx, ent.ID, ent.Members[0].ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"100"}, shareValues(updated))
	})

	t.Run("only the creator may remove", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")
		_, err := svc.RemoveMember(ctx, ent.ID, ent.Members[0].ID, 2)
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)

	t.Run("sixty forty split by the payer", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")

		exp, err := svc.CreateExpense(ctx, ent.ID, 1, &CreateSharedExpenseRequest{
			Amount: dec("100"),
			Date:   date,
		})
		require.NoError(t, err)
		require.Len(t, exp.Allocations, 3)

		fronted := exp.Allocations[0]
		assert.True(t, fronted.Amount.Equal(dec("100")))
		assert.Nil(t, fronted.SharePercentage)
		assert.True(t, fronted.IsPayer)
		assert.True(t, fronted.IsSettled)

		ana, bruno := exp.Allocations[1], exp.Allocations[2]
		assert.True(t, ana.Amount.Equal(dec("60")))
		assert.True(t, ana.IsPayer)
		assert.True(t, ana.IsSettled)
		assert.True(t, bruno.Amount.Equal(dec("40")))
		assert.False(t, bruno.IsPayer)
		assert.False(t, bruno.IsSettled)

		// Proportional slices sum to the amount exactly.
		sum := ana.Amount.Add(bruno.Amount)
		assert.True(t, sum.Equal(dec("100")))
	})

	t.Run("last member absorbs the remainder", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "33.33", "33.33", "33.34")

		exp, err := svc.CreateExpense(ctx, ent.ID, 1, &CreateSharedExpenseRequest{
			Amount: dec("100"),
			Date:   date,
		})
		require.NoError(t, err)
		require.Len(t, exp.Allocations, 4)

		slices := exp.Allocations[1:]
		assert.True(t, slices[0].Amount.Equal(dec("33.33")))
		assert.True(t, slices[1].Amount.Equal(dec("33.33")))
		assert.True(t, slices[2].Amount.Equal(dec("33.34")))
	})

	t.Run("explicit payer override", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")

		payer := int64(2)
		exp, err := svc.CreateExpense(ctx, ent.ID, 1, &CreateSharedExpenseRequest{
			Amount:       dec("50"),
			Date:         date,
			PaidByUserID: &payer,
		})
		require.NoError(t, err)

		fronted := exp.Allocations[0]
		assert.Equal(t, int64(2), fronted.UserID)
		assert.True(t, fronted.IsPayer)
		assert.Equal(t, int64(1), exp.AddedBy)

		// The caller's slice is no longer the payer's.
		assert.False(t, exp.Allocations[1].IsPayer)
		assert.True(t, exp.Allocations[2].IsPayer)
		assert.True(t, exp.Allocations[2].IsSettled)
	})

	t.Run("payer override must be a member", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")

		payer := int64(3)
		_, err := svc.CreateExpense(ctx, ent.ID, 1, &CreateSharedExpenseRequest{
			Amount:       dec("50"),
			Date:         date,
			PaidByUserID: &payer,
		})
		assert.ErrorIs(t, err, ErrPayerNotMember)
	})

	t.Run("unbalanced shares block the split", func(t *testing.T) {
		svc, store := newTestService()
		ent := createTestEntity(t, svc, "60", "40")

		// Corrupt the stored shares behind the service's back.
		store.members[0].Share = dec("90")

		_, err := svc.CreateExpense(ctx, ent.ID, 1, &CreateSharedExpenseRequest{
			Amount: dec("50"),
			Date:   date,
		})
		assert.ErrorIs(t, err, share.ErrUnbalanced)
	})

	t.Run("non members cannot record", func(t *testing.T) {
		svc, _ := newTestService()
		ent := createTestEntity(t, svc, "60", "40")

		_, err := svc.CreateExpense(ctx, ent.ID, 3, &CreateSharedExpenseRequest{
			Amount: dec("50"),
			Date:   date,
		})
		assert.ErrorIs(t, err, ErrNotMember)
	})
}

func TestListExpensesRequiresMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	ent := createTestEntity(t, svc, "60", "40")

	_, err := svc.ListExpenses(ctx, ent.ID, 3)
	assert.ErrorIs(t, err, ErrNotMember)

	expenses, err := svc.ListExpenses(ctx, ent.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}
