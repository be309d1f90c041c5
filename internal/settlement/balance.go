package settlement

import "github.com/triply/tripledger/internal/expense"

// Balance is one participant's net position in minor units. Positive
// means the participant is owed money; negative means they owe.
type Balance struct {
	UserID   int64 `json:"user_id"`
	NetCents int64 `json:"net_cents"`
}

// ComputeBalances derives each participant's net position (paid minus
// owed) from an expense set. It is pure and side-effect free, so it can
// be re-run at any time for display or audit.
//
// Participants appear in the result in order of first appearance across
// the expense set; the generator's determinism guarantee rests on this
// ordering. The balances always sum to zero because every expense's
// paidBy and splitAmong shares each sum to its amount.
func ComputeBalances(expenses []*expense.Expense) []Balance {
	net := make(map[int64]int64)
	var order []int64

	apply := func(userID, delta int64) {
		if _, seen := net[userID]; !seen {
			order = append(order, userID)
		}
		net[userID] += delta
	}

	for _, e := range expenses {
		for _, share := range e.PaidBy {
			apply(share.UserID, share.AmountCents)
		}
		for _, share := range e.SplitAmong {
			apply(share.UserID, -share.AmountCents)
		}
	}

	balances := make([]Balance, 0, len(order))
	for _, userID := range order {
		balances = append(balances, Balance{UserID: userID, NetCents: net[userID]})
	}

	return balances
}
