// Package policy decides who may touch a trip's ledger. All write paths
// share this one implementation instead of re-querying roles ad hoc.
package policy

import (
	"context"

	"github.com/triply/tripledger/internal/trip"
)

// ExpensePermission is a wallet's expense-write mode.
type ExpensePermission string

const (
	// PermissionAll lets every trip participant record expenses.
	PermissionAll ExpensePermission = "all"
	// PermissionAccountantOnly restricts expense writes to the creator
	// and participants holding the accountant role.
	PermissionAccountantOnly ExpensePermission = "accountant_only"
)

// ValidPermission reports whether p names a known expense-permission mode.
func ValidPermission(p ExpensePermission) bool {
	return p == PermissionAll || p == PermissionAccountantOnly
}

// Policy gates ledger writes given trip role data and the wallet's
// permission mode.
type Policy struct {
	roles trip.RoleChecker
}

// New creates a policy backed by the given role checker.
func New(roles trip.RoleChecker) *Policy {
	return &Policy{roles: roles}
}

// CanAddExpense reports whether the actor may record a new expense.
// The wallet locks once its trip completes; the creator may always write
// while it is open; otherwise the wallet's permission mode decides.
func (p *Policy) CanAddExpense(ctx context.Context, actorID int64, t *trip.Trip, permission ExpensePermission) (bool, error) {
	if t.IsCompleted() {
		return false, nil
	}
	if actorID == t.CreatedBy {
		return true, nil
	}
	if permission == PermissionAll {
		return true, nil
	}
	return p.roles.HasActiveRole(ctx, t.ID, actorID, trip.RoleAccountant)
}

// CanManageExpense reports whether the actor may edit or delete an
// existing expense. Mirrors create rights, with the accountant role
// honored regardless of the wallet's permission mode.
func (p *Policy) CanManageExpense(ctx context.Context, actorID int64, t *trip.Trip, permission ExpensePermission) (bool, error) {
	if t.IsCompleted() {
		return false, nil
	}
	if actorID == t.CreatedBy {
		return true, nil
	}
	isAccountant, err := p.roles.HasActiveRole(ctx, t.ID, actorID, trip.RoleAccountant)
	if err != nil {
		return false, err
	}
	if isAccountant {
		return true, nil
	}
	return permission == PermissionAll, nil
}

// CanManageWallet reports whether the actor may change wallet settings.
func (p *Policy) CanManageWallet(ctx context.Context, actorID int64, t *trip.Trip) (bool, error) {
	if actorID == t.CreatedBy {
		return true, nil
	}
	return p.roles.HasActiveRole(ctx, t.ID, actorID, trip.RoleCaptain)
}

// CanGenerateSettlements reports whether the actor may generate the
// trip's settlement batch. Creator only.
func (p *Policy) CanGenerateSettlements(actorID int64, t *trip.Trip) bool {
	return actorID == t.CreatedBy
}
