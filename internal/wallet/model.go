package wallet

import (
	"time"

	"github.com/triply/tripledger/internal/policy"
)

// Wallet is the per-trip container for spend totals, budget, and the
// expense-permission policy. It is created with its trip and never
// deleted independently.
type Wallet struct {
	ID      int64 `json:"id"`
	TripID  int64 `json:"trip_id"`
	Manager int64 `json:"manager"`

	// BudgetCents is an advisory cap; exceeding it is allowed.
	BudgetCents int64 `json:"budget_cents"`

	// TotalSpendCents caches the sum of all live expenses on this wallet.
	// Expense writes adjust it by delta in the same transaction; Reconcile
	// is the recovery path for drift.
	TotalSpendCents int64 `json:"total_spend_cents"`

	ExpensePermission policy.ExpensePermission `json:"expense_permission"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}
