package expense

import "time"

// Category classifies an expense
type Category string

const (
	CategoryFood     Category = "food"
	CategoryTravel   Category = "travel"
	CategoryStay     Category = "stay"
	CategoryShopping Category = "shopping"
	CategoryOther    Category = "other"
)

// ValidCategory reports whether c names a known category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryFood, CategoryTravel, CategoryStay, CategoryShopping, CategoryOther:
		return true
	}
	return false
}

// Share is one participant's portion of an expense, in minor units.
type Share struct {
	UserID      int64 `json:"user_id"`
	AmountCents int64 `json:"amount_cents"`
}

// SumCents returns the total of a share list.
func SumCents(shares []Share) int64 {
	var sum int64
	for _, s := range shares {
		sum += s.AmountCents
	}
	return sum
}

// Expense represents one spend event tied to a wallet. PaidBy records who
// fronted the money; SplitAmong records who benefited. Both lists sum to
// AmountCents.
type Expense struct {
	ID          int64     `json:"id"`
	WalletID    int64     `json:"wallet_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    Category  `json:"category"`
	ExpenseDate time.Time `json:"expense_date"`
	AddedBy     int64     `json:"added_by"`
	PaidBy      []Share   `json:"paid_by"`
	SplitAmong  []Share   `json:"split_among"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
