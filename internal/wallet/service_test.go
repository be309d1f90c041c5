package wallet

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/trip"
)

type fakeStore struct {
	wallets map[int64]*Wallet // by trip id
}

func (f *fakeStore) GetByTripID(_ context.Context, tripID int64) (*Wallet, error) {
	return f.wallets[tripID], nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Wallet, error) {
	for _, w := range f.wallets {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateSettings(_ context.Context, tripID int64, permission *policy.ExpensePermission, budgetCents *int64) (*Wallet, error) {
	w := f.wallets[tripID]
	if w == nil {
		return nil, nil
	}
	if permission != nil {
		w.ExpensePermission = *permission
	}
	if budgetCents != nil {
		w.BudgetCents = *budgetCents
	}
	return w, nil
}

func (f *fakeStore) RecomputeTotalSpend(_ context.Context, walletID int64) (int64, int64, error) {
	for _, w := range f.wallets {
		if w.ID == walletID {
			return w.TotalSpendCents, w.TotalSpendCents, nil
		}
	}
	return 0, 0, nil
}

type fakeTrips struct {
	trips map[int64]*trip.Trip
}

func (f *fakeTrips) GetByID(_ context.Context, id int64) (*trip.Trip, error) {
	return f.trips[id], nil
}

type fakeRoles struct {
	captains map[int64]bool
}

func (f *fakeRoles) HasActiveRole(_ context.Context, _ int64, userID int64, role trip.Role) (bool, error) {
	return role == trip.RoleCaptain && f.captains[userID], nil
}

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{wallets: map[int64]*Wallet{
		1: {ID: 100, TripID: 1, Manager: 1, ExpensePermission: policy.PermissionAll},
	}}
	trips := &fakeTrips{trips: map[int64]*trip.Trip{
		1: {ID: 1, CreatedBy: 1, Status: trip.StatusPlanning},
	}}
	roles := &fakeRoles{captains: map[int64]bool{3: true}}
	return NewService(store, trips, policy.New(roles)), store
}

func permPtr(p policy.ExpensePermission) *policy.ExpensePermission { return &p }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("creator can change permission and budget", func(t *testing.T) {
		svc, _ := newTestService()
		w, err := svc.UpdateSettings(ctx, 1, 1, &UpdateSettingsRequest{
			ExpensePermission: permPtr(policy.PermissionAccountantOnly),
			Budget:            decPtr("500.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, policy.PermissionAccountantOnly, w.ExpensePermission)
		assert.Equal(t, int64(50000), w.BudgetCents)
	})

	t.Run("captain can change settings", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateSettings(ctx, 1, 3, &UpdateSettingsRequest{Budget: decPtr("100")})
		require.NoError(t, err)
	})

	t.Run("plain participant is rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateSettings(ctx, 1, 4, &UpdateSettingsRequest{Budget: decPtr("100")})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("unknown permission is rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateSettings(ctx, 1, 1, &UpdateSettingsRequest{
			ExpensePermission: permPtr("owners_only"),
		})
		assert.ErrorIs(t, err, ErrUnknownPermission)
	})

	t.Run("negative budget is rejected", func(t *testing.T) {
		svc, store := newTestService()
		_, err := svc.UpdateSettings(ctx, 1, 1, &UpdateSettingsRequest{Budget: decPtr("-10")})
		assert.ErrorIs(t, err, ErrNegativeBudget)
		assert.Equal(t, int64(0), store.wallets[1].BudgetCents)
	})

	t.Run("missing trip", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateSettings(ctx, 99, 1, &UpdateSettingsRequest{Budget: decPtr("10")})
		assert.ErrorIs(t, err, trip.ErrTripNotFound)
	})
}

func TestGetByTrip(t *testing.T) {
	svc, _ := newTestService()

	w, err := svc.GetByTrip(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.ID)

	_, err = svc.GetByTrip(context.Background(), 42)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestReconcileMissingWallet(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Reconcile(context.Background(), 999)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
