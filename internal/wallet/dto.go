package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/triply/tripledger/internal/money"
	"github.com/triply/tripledger/internal/policy"
)

// UpdateSettingsRequest represents the request to change wallet settings
type UpdateSettingsRequest struct {
	ExpensePermission *policy.ExpensePermission `json:"expense_permission,omitempty"`
	Budget            *decimal.Decimal          `json:"budget,omitempty"`
}

// WalletResponse represents the response for a wallet
type WalletResponse struct {
	ID                int64                    `json:"id"`
	TripID            int64                    `json:"trip_id"`
	Manager           int64                    `json:"manager"`
	Budget            string                   `json:"budget"`
	TotalSpend        string                   `json:"total_spend"`
	ExpensePermission policy.ExpensePermission `json:"expense_permission"`
	CreatedAt         string                   `json:"created_at"`
}

// ReconcileResponse reports the outcome of a totalSpend reconciliation
type ReconcileResponse struct {
	WalletID   int64  `json:"wallet_id"`
	Previous   string `json:"previous_total_spend"`
	Recomputed string `json:"recomputed_total_spend"`
	Drifted    bool   `json:"drifted"`
}

// ToResponse converts a Wallet model to a WalletResponse DTO
func (w *Wallet) ToResponse() *WalletResponse {
	return &WalletResponse{
		ID:                w.ID,
		TripID:            w.TripID,
		Manager:           w.Manager,
		Budget:            money.FromCents(w.BudgetCents).StringFixed(2),
		TotalSpend:        money.FromCents(w.TotalSpendCents).StringFixed(2),
		ExpensePermission: w.ExpensePermission,
		CreatedAt:         w.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
