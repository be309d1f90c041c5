package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grace = 7 * 24 * time.Hour

func TestGenerateBatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("all-zero balances produce an empty batch", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 0},
			{UserID: 2, NetCents: 0},
		}
		assert.Empty(t, GenerateBatch(1, balances, now, grace))
	})

	t.Run("two parties, one transfer", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 2500},
			{UserID: 2, NetCents: -2500},
		}

		batch := GenerateBatch(1, balances, now, grace)
		require.Len(t, batch, 1)

		s := batch[0]
		assert.Equal(t, 0, s.Idx)
		assert.Equal(t, int64(2), s.FromUserID)
		assert.Equal(t, int64(1), s.ToUserID)
		assert.Equal(t, int64(2500), s.AmountCents)
		assert.Equal(t, now.Add(grace), s.DueAt)
		assert.Equal(t, StatusPending, s.Status())
	})

	t.Run("one creditor paid by two debtors", func(t *testing.T) {
		// A is owed 20.00; B owes 15.00, C owes 5.00.
		balances := []Balance{
			{UserID: 1, NetCents: 2000},
			{UserID: 2, NetCents: -1500},
			{UserID: 3, NetCents: -500},
		}

		batch := GenerateBatch(1, balances, now, grace)
		require.Len(t, batch, 2)

		assert.Equal(t, int64(2), batch[0].FromUserID)
		assert.Equal(t, int64(1), batch[0].ToUserID)
		assert.Equal(t, int64(1500), batch[0].AmountCents)

		assert.Equal(t, int64(3), batch[1].FromUserID)
		assert.Equal(t, int64(1), batch[1].ToUserID)
		assert.Equal(t, int64(500), batch[1].AmountCents)
	})

	t.Run("two debtors owe one creditor exactly their deficits", func(t *testing.T) {
		// The 90.00/30.00 two-payer trip: A is owed 50.00 in total.
		balances := []Balance{
			{UserID: 1, NetCents: 5000},
			{UserID: 2, NetCents: -1000},
			{UserID: 3, NetCents: -4000},
		}

		batch := GenerateBatch(1, balances, now, grace)
		require.Len(t, batch, 2)

		assert.Equal(t, int64(2), batch[0].FromUserID)
		assert.Equal(t, int64(1), batch[0].ToUserID)
		assert.Equal(t, int64(1000), batch[0].AmountCents)

		assert.Equal(t, int64(3), batch[1].FromUserID)
		assert.Equal(t, int64(1), batch[1].ToUserID)
		assert.Equal(t, int64(4000), batch[1].AmountCents)

		var toCreditor int64
		for _, s := range batch {
			toCreditor += s.AmountCents
		}
		assert.Equal(t, int64(5000), toCreditor)
	})

	t.Run("equal head amounts pop both queues", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 1000},
			{UserID: 2, NetCents: -1000},
			{UserID: 3, NetCents: 700},
			{UserID: 4, NetCents: -700},
		}

		batch := GenerateBatch(1, balances, now, grace)
		require.Len(t, batch, 2)
		assert.Equal(t, int64(1000), batch[0].AmountCents)
		assert.Equal(t, int64(700), batch[1].AmountCents)
	})

	t.Run("applying the batch zeroes every balance", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 3300},
			{UserID: 2, NetCents: -1200},
			{UserID: 3, NetCents: 900},
			{UserID: 4, NetCents: -2100},
			{UserID: 5, NetCents: -900},
		}

		batch := GenerateBatch(1, balances, now, grace)

		net := make(map[int64]int64)
		for _, b := range balances {
			net[b.UserID] = b.NetCents
		}
		for _, s := range batch {
			net[s.FromUserID] += s.AmountCents
			net[s.ToUserID] -= s.AmountCents
		}
		for userID, remaining := range net {
			assert.Zerof(t, remaining, "user %d not zeroed", userID)
		}
	})

	t.Run("transfer count stays below debtors plus creditors", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 500},
			{UserID: 2, NetCents: 500},
			{UserID: 3, NetCents: 500},
			{UserID: 4, NetCents: -700},
			{UserID: 5, NetCents: -800},
		}

		batch := GenerateBatch(1, balances, now, grace)
		assert.LessOrEqual(t, len(batch), 3+2-1)
	})

	t.Run("same input yields an identical batch", func(t *testing.T) {
		balances := []Balance{
			{UserID: 4, NetCents: -2100},
			{UserID: 1, NetCents: 3300},
			{UserID: 5, NetCents: -1200},
		}

		first := GenerateBatch(1, balances, now, grace)
		second := GenerateBatch(1, balances, now, grace)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, *first[i], *second[i])
		}
	})

	t.Run("indexes are sequential from zero", func(t *testing.T) {
		balances := []Balance{
			{UserID: 1, NetCents: 300},
			{UserID: 2, NetCents: -100},
			{UserID: 3, NetCents: -100},
			{UserID: 4, NetCents: -100},
		}

		batch := GenerateBatch(1, balances, now, grace)
		require.Len(t, batch, 3)
		for i, s := range batch {
			assert.Equal(t, i, s.Idx)
		}
	})
}
