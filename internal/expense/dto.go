package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/triply/tripledger/internal/money"
)

// ShareInput represents one participant's portion in a request. Amount is
// required for EXACT splits, Percent for PERCENTAGE splits; EVEN splits
// ignore both.
type ShareInput struct {
	UserID  int64            `json:"user_id" validate:"required"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Percent *decimal.Decimal `json:"percent,omitempty"`
}

// CreateExpenseRequest represents the request to record an expense.
// PaidBy defaults to the actor fronting the full amount when omitted.
type CreateExpenseRequest struct {
	Description string           `json:"description" validate:"required,min=1,max=255"`
	Amount      decimal.Decimal  `json:"amount" validate:"required,gt=0"`
	Category    Category         `json:"category" validate:"required,oneof=food travel stay shopping other"`
	ExpenseDate *time.Time       `json:"expense_date,omitempty"`
	SplitType   string           `json:"split_type,omitempty"` // EVEN, EXACT, or PERCENTAGE, default EXACT
	PaidBy      []*ShareInput    `json:"paid_by,omitempty"`
	SplitAmong  []*ShareInput    `json:"split_among" validate:"required,min=1"`
}

// UpdateExpenseRequest represents the request to edit an expense. When the
// amount changes, new shares must be supplied (or an EVEN re-split
// requested) so the sums still match.
type UpdateExpenseRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	ExpenseDate *time.Time       `json:"expense_date,omitempty"`
	SplitType   string           `json:"split_type,omitempty"`
	PaidBy      []*ShareInput    `json:"paid_by,omitempty"`
	SplitAmong  []*ShareInput    `json:"split_among,omitempty"`
}

// ShareResponse represents one share in a response
type ShareResponse struct {
	UserID int64  `json:"user_id"`
	Amount string `json:"amount"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID          int64            `json:"id"`
	WalletID    int64            `json:"wallet_id"`
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	Category    Category         `json:"category"`
	ExpenseDate string           `json:"expense_date"`
	AddedBy     int64            `json:"added_by"`
	PaidBy      []*ShareResponse `json:"paid_by"`
	SplitAmong  []*ShareResponse `json:"split_among"`
	CreatedAt   string           `json:"created_at"`
}

func sharesToResponse(shares []Share) []*ShareResponse {
	out := make([]*ShareResponse, len(shares))
	for i, s := range shares {
		out[i] = &ShareResponse{
			UserID: s.UserID,
			Amount: money.FromCents(s.AmountCents).StringFixed(2),
		}
	}
	return out
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:          e.ID,
		WalletID:    e.WalletID,
		Description: e.Description,
		Amount:      money.FromCents(e.AmountCents).StringFixed(2),
		Category:    e.Category,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		AddedBy:     e.AddedBy,
		PaidBy:      sharesToResponse(e.PaidBy),
		SplitAmong:  sharesToResponse(e.SplitAmong),
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
