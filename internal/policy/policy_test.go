package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triply/tripledger/internal/trip"
)

// fakeRoles is an in-memory RoleChecker keyed by user and role.
type fakeRoles struct {
	grants map[int64][]trip.Role
}

func (f *fakeRoles) HasActiveRole(_ context.Context, _ int64, userID int64, role trip.Role) (bool, error) {
	for _, r := range f.grants[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

const (
	creatorID    = int64(1)
	accountantID = int64(2)
	captainID    = int64(3)
	memberID     = int64(4)
)

func newTestPolicy() *Policy {
	return New(&fakeRoles{grants: map[int64][]trip.Role{
		accountantID: {trip.RoleAccountant},
		captainID:    {trip.RoleCaptain},
	}})
}

func openTrip() *trip.Trip {
	return &trip.Trip{ID: 10, CreatedBy: creatorID, Status: trip.StatusPlanning}
}

func completedTrip() *trip.Trip {
	return &trip.Trip{ID: 10, CreatedBy: creatorID, Status: trip.StatusCompleted}
}

func TestCanAddExpense(t *testing.T) {
	tests := []struct {
		name       string
		actor      int64
		trip       *trip.Trip
		permission ExpensePermission
		want       bool
	}{
		{name: "creator always allowed while open", actor: creatorID, trip: openTrip(), permission: PermissionAccountantOnly, want: true},
		{name: "anyone allowed in all mode", actor: memberID, trip: openTrip(), permission: PermissionAll, want: true},
		{name: "plain member rejected in accountant_only mode", actor: memberID, trip: openTrip(), permission: PermissionAccountantOnly, want: false},
		{name: "accountant allowed in accountant_only mode", actor: accountantID, trip: openTrip(), permission: PermissionAccountantOnly, want: true},
		{name: "captain role does not grant expense rights", actor: captainID, trip: openTrip(), permission: PermissionAccountantOnly, want: false},
		{name: "completed trip locks out creator too", actor: creatorID, trip: completedTrip(), permission: PermissionAll, want: false},
		{name: "completed trip locks out accountant", actor: accountantID, trip: completedTrip(), permission: PermissionAccountantOnly, want: false},
	}

	p := newTestPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.CanAddExpense(context.Background(), tt.actor, tt.trip, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanManageExpense(t *testing.T) {
	p := newTestPolicy()
	ctx := context.Background()

	// Accountant may edit even when the wallet is open to everyone.
	ok, err := p.CanManageExpense(ctx, accountantID, openTrip(), PermissionAll)
	require.NoError(t, err)
	assert.True(t, ok)

	// Accountant override applies in accountant_only mode as well.
	ok, err = p.CanManageExpense(ctx, accountantID, openTrip(), PermissionAccountantOnly)
	require.NoError(t, err)
	assert.True(t, ok)

	// Plain member may edit only in all mode.
	ok, err = p.CanManageExpense(ctx, memberID, openTrip(), PermissionAll)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.CanManageExpense(ctx, memberID, openTrip(), PermissionAccountantOnly)
	require.NoError(t, err)
	assert.False(t, ok)

	// Nobody edits once the trip closes.
	ok, err = p.CanManageExpense(ctx, creatorID, completedTrip(), PermissionAll)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanManageWallet(t *testing.T) {
	p := newTestPolicy()
	ctx := context.Background()

	for actor, want := range map[int64]bool{
		creatorID:    true,
		captainID:    true,
		accountantID: false,
		memberID:     false,
	} {
		ok, err := p.CanManageWallet(ctx, actor, openTrip())
		require.NoError(t, err)
		assert.Equal(t, want, ok, "actor %d", actor)
	}
}

func TestCanGenerateSettlements(t *testing.T) {
	p := newTestPolicy()

	assert.True(t, p.CanGenerateSettlements(creatorID, completedTrip()))
	assert.False(t, p.CanGenerateSettlements(captainID, completedTrip()))
	assert.False(t, p.CanGenerateSettlements(memberID, completedTrip()))
}

func TestValidPermission(t *testing.T) {
	assert.True(t, ValidPermission(PermissionAll))
	assert.True(t, ValidPermission(PermissionAccountantOnly))
	assert.False(t, ValidPermission("admins_only"))
	assert.False(t, ValidPermission(""))
}
