package settlement

import "time"

// GenerateBatch nets a balance vector into a list of directed transfers
// that zero every participant's position, using greedy debt netting:
// repeatedly match the head debtor with the head creditor and transfer
// the smaller of the two outstanding amounts.
//
// The heuristic is not provably minimal in transfer count for every
// balance distribution, but it is bounded (at most debtors+creditors-1
// rows) and, given the first-appearance queue ordering produced by
// ComputeBalances, fully deterministic — the idempotence of settlement
// generation depends on that.
func GenerateBatch(tripID int64, balances []Balance, now time.Time, grace time.Duration) []*Settlement {
	type entry struct {
		userID int64
		amount int64
	}

	var debtors, creditors []entry
	for _, b := range balances {
		switch {
		case b.NetCents < 0:
			debtors = append(debtors, entry{userID: b.UserID, amount: -b.NetCents})
		case b.NetCents > 0:
			creditors = append(creditors, entry{userID: b.UserID, amount: b.NetCents})
		}
	}

	dueAt := now.Add(grace)
	var batch []*Settlement

	for len(debtors) > 0 && len(creditors) > 0 {
		d := &debtors[0]
		c := &creditors[0]

		transfer := d.amount
		if c.amount < transfer {
			transfer = c.amount
		}

		batch = append(batch, &Settlement{
			TripID:      tripID,
			Idx:         len(batch),
			FromUserID:  d.userID,
			ToUserID:    c.userID,
			AmountCents: transfer,
			DueAt:       dueAt,
			CreatedAt:   now,
		})

		d.amount -= transfer
		c.amount -= transfer

		if d.amount == 0 {
			debtors = debtors[1:]
		}
		if c.amount == 0 {
			creditors = creditors[1:]
		}
	}

	return batch
}
