package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triply/tripledger/internal/events"
	"github.com/triply/tripledger/internal/expense"
	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/trip"
	"github.com/triply/tripledger/internal/wallet"
)

const (
	testTripID   = int64(1)
	testWalletID = int64(100)

	creatorID = int64(1)
	payerID   = int64(2)
	memberID  = int64(3)
)

type fakeTrips struct {
	trips        map[int64]*trip.Trip
	participants map[int64]bool
}

func (f *fakeTrips) GetByID(_ context.Context, id int64) (*trip.Trip, error) {
	return f.trips[id], nil
}

func (f *fakeTrips) IsParticipant(_ context.Context, _ int64, userID int64) (bool, error) {
	return f.participants[userID], nil
}

type fakeWallets struct {
	wallets map[int64]*wallet.Wallet
}

func (f *fakeWallets) GetByTripID(_ context.Context, tripID int64) (*wallet.Wallet, error) {
	for _, w := range f.wallets {
		if w.TripID == tripID {
			return w, nil
		}
	}
	return nil, nil
}

type fakeExpenses struct {
	expenses []*expense.Expense
}

func (f *fakeExpenses) ListAllByWalletID(_ context.Context, _ int64) ([]*expense.Expense, error) {
	return f.expenses, nil
}

type fakeRoles struct{}

func (f *fakeRoles) HasActiveRole(_ context.Context, _ int64, _ int64, _ trip.Role) (bool, error) {
	return false, nil
}

type recordingEmitter struct {
	emitted []events.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e events.Event) {
	r.emitted = append(r.emitted, e)
}

type trustCall struct {
	userID  int64
	outcome events.TrustOutcome
	idx     int
}

type recordingTrust struct {
	calls []trustCall
}

func (r *recordingTrust) Award(_ context.Context, userID int64, outcome events.TrustOutcome, _ int64, idx int) error {
	r.calls = append(r.calls, trustCall{userID: userID, outcome: outcome, idx: idx})
	return nil
}

// fakeStore mimics the repository's exactly-once batch flip and the
// locked read-modify-write of confirmations.
type fakeStore struct {
	trips       *fakeTrips
	settlements []*Settlement
	inserts     int
}

func (f *fakeStore) InsertBatch(_ context.Context, tripID int64, batch []*Settlement) (bool, error) {
	t := f.trips.trips[tripID]
	if t.SettlementsGenerated {
		return false, nil
	}
	t.SettlementsGenerated = true
	f.settlements = append(f.settlements, batch...)
	f.inserts++
	return true, nil
}

func (f *fakeStore) ListByTrip(_ context.Context, tripID int64) ([]*Settlement, error) {
	var out []*Settlement
	for _, s := range f.settlements {
		if s.TripID == tripID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByTripAndIdx(_ context.Context, tripID int64, idx int) (*Settlement, error) {
	for _, s := range f.settlements {
		if s.TripID == tripID && s.Idx == idx {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Confirm(ctx context.Context, tripID int64, idx int, role ConfirmRole) (*Settlement, bool, error) {
	s, _ := f.GetByTripAndIdx(ctx, tripID, idx)
	if s == nil {
		return nil, false, nil
	}
	if s.IsSettled() {
		return s, false, nil
	}

	switch role {
	case RolePayer:
		s.PayerConfirmed = true
	case RoleReceiver:
		s.ReceiverConfirmed = true
	}

	var transitioned bool
	if s.PayerConfirmed && s.ReceiverConfirmed {
		now := time.Now().UTC()
		s.SettledAt = &now
		if !s.TrustEvaluated {
			s.TrustEvaluated = true
			transitioned = true
		}
	}

	return s, transitioned, nil
}

type fixture struct {
	service *Service
	store   *fakeStore
	trips   *fakeTrips
	emitter *recordingEmitter
	trust   *recordingTrust
}

func newFixture(t *testing.T, expenses []*expense.Expense) *fixture {
	t.Helper()

	trips := &fakeTrips{
		trips: map[int64]*trip.Trip{
			testTripID: {ID: testTripID, Name: "Lisbon", CreatedBy: creatorID, Status: trip.StatusCompleted},
		},
		participants: map[int64]bool{creatorID: true, payerID: true, memberID: true},
	}
	store := &fakeStore{trips: trips}
	wallets := &fakeWallets{
		wallets: map[int64]*wallet.Wallet{
			testWalletID: {ID: testWalletID, TripID: testTripID, Manager: creatorID},
		},
	}
	emitter := &recordingEmitter{}
	trust := &recordingTrust{}

	service := NewService(
		store, trips, wallets,
		&fakeExpenses{expenses: expenses},
		policy.New(&fakeRoles{}),
		emitter, trust,
		7*24*time.Hour,
	)

	return &fixture{service: service, store: store, trips: trips, emitter: emitter, trust: trust}
}

// creatorOwesNothing: creator paid 30.00 split across three, so payer and
// member each owe the creator 10.00.
func creatorOwesNothing() []*expense.Expense {
	return []*expense.Expense{
		{
			WalletID:    testWalletID,
			AmountCents: 3000,
			PaidBy:      []expense.Share{{UserID: creatorID, AmountCents: 3000}},
			SplitAmong: []expense.Share{
				{UserID: creatorID, AmountCents: 1000},
				{UserID: payerID, AmountCents: 1000},
				{UserID: memberID, AmountCents: 1000},
			},
		},
	}
}

func TestServiceGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("creator generates the batch", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		batch, err := f.service.Generate(ctx, testTripID, creatorID)
		require.NoError(t, err)
		require.Len(t, batch, 2)

		assert.Equal(t, payerID, batch[0].FromUserID)
		assert.Equal(t, creatorID, batch[0].ToUserID)
		assert.Equal(t, int64(1000), batch[0].AmountCents)
		assert.Equal(t, memberID, batch[1].FromUserID)

		require.Len(t, f.emitter.emitted, 1)
		assert.Equal(t, events.EventSettlementGenerated, f.emitter.emitted[0].Type)
	})

	t.Run("non-creator is rejected", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		_, err := f.service.Generate(ctx, testTripID, payerID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("trip must be completed", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		f.trips.trips[testTripID].Status = trip.StatusPlanning

		_, err := f.service.Generate(ctx, testTripID, creatorID)
		assert.ErrorIs(t, err, ErrTripNotCompleted)
	})

	t.Run("missing trip", func(t *testing.T) {
		f := newFixture(t, nil)

		_, err := f.service.Generate(ctx, int64(42), creatorID)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})

	t.Run("regeneration returns the existing batch unchanged", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		first, err := f.service.Generate(ctx, testTripID, creatorID)
		require.NoError(t, err)

		second, err := f.service.Generate(ctx, testTripID, creatorID)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Idx, second[i].Idx)
			assert.Equal(t, first[i].FromUserID, second[i].FromUserID)
			assert.Equal(t, first[i].AmountCents, second[i].AmountCents)
		}

		assert.Equal(t, 1, f.store.inserts)
		assert.Len(t, f.emitter.emitted, 1, "regeneration must not re-announce")
	})

	t.Run("losing the insert race falls back to the stored batch", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		// Another call slipped in between the trip read and the insert.
		f.store.settlements = []*Settlement{
			{TripID: testTripID, Idx: 0, FromUserID: payerID, ToUserID: creatorID, AmountCents: 1000},
			{TripID: testTripID, Idx: 1, FromUserID: memberID, ToUserID: creatorID, AmountCents: 1000},
		}
		f.trips.trips[testTripID].SettlementsGenerated = true

		batch, err := f.service.Generate(ctx, testTripID, creatorID)
		require.NoError(t, err)
		assert.Len(t, batch, 2)
		assert.Zero(t, f.store.inserts)
	})
}

func TestServiceBalances(t *testing.T) {
	ctx := context.Background()

	t.Run("participants can audit balances", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		balances, err := f.service.Balances(ctx, testTripID, memberID)
		require.NoError(t, err)
		require.Len(t, balances, 3)
		assert.Equal(t, int64(2000), balances[0].NetCents)
	})

	t.Run("non-participants cannot", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())

		_, err := f.service.Balances(ctx, testTripID, int64(99))
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}

func TestServiceConfirm(t *testing.T) {
	ctx := context.Background()

	generate := func(t *testing.T, f *fixture) []*Settlement {
		t.Helper()
		batch, err := f.service.Generate(ctx, testTripID, creatorID)
		require.NoError(t, err)
		require.NotEmpty(t, batch)
		return batch
	}

	t.Run("single confirmation leaves the settlement partially confirmed", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		s, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)

		assert.Equal(t, StatusPartiallyConfirmed, s.Status())
		assert.False(t, s.IsSettled())
		assert.Empty(t, f.trust.calls)
	})

	t.Run("both confirmations settle and award trust once", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		_, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)

		s, err := f.service.Confirm(ctx, testTripID, 0, creatorID, &ConfirmRequest{Role: "receiver"})
		require.NoError(t, err)

		assert.Equal(t, StatusSettled, s.Status())
		require.NotNil(t, s.SettledAt)
		assert.True(t, s.TrustEvaluated)

		require.Len(t, f.trust.calls, 1)
		assert.Equal(t, payerID, f.trust.calls[0].userID)
		assert.Equal(t, events.OutcomeSettlePayment, f.trust.calls[0].outcome)
	})

	t.Run("confirming a settled row is a replay-safe no-op", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		_, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)
		settled, err := f.service.Confirm(ctx, testTripID, 0, creatorID, &ConfirmRequest{Role: "receiver"})
		require.NoError(t, err)

		replayed, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)

		assert.Equal(t, StatusSettled, replayed.Status())
		assert.Equal(t, settled.SettledAt, replayed.SettledAt)
		assert.Len(t, f.trust.calls, 1, "trust side effect must not re-fire")
	})

	t.Run("late completion is scored as late_settlement", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		batch := generate(t, f)

		batch[0].DueAt = time.Now().UTC().Add(-24 * time.Hour)

		_, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)
		_, err = f.service.Confirm(ctx, testTripID, 0, creatorID, &ConfirmRequest{Role: "receiver"})
		require.NoError(t, err)

		require.Len(t, f.trust.calls, 1)
		assert.Equal(t, events.OutcomeLateSettlement, f.trust.calls[0].outcome)
	})

	t.Run("actor must match the confirming side", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		_, err := f.service.Confirm(ctx, testTripID, 0, memberID, &ConfirmRequest{Role: "payer"})
		assert.ErrorIs(t, err, ErrRoleMismatch)

		_, err = f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "receiver"})
		assert.ErrorIs(t, err, ErrRoleMismatch)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		_, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "witness"})
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("missing settlement index", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)

		_, err := f.service.Confirm(ctx, testTripID, 9, payerID, &ConfirmRequest{Role: "payer"})
		assert.ErrorIs(t, err, ErrSettlementNotFound)
	})

	t.Run("settlement confirmation announces the settle transition only", func(t *testing.T) {
		f := newFixture(t, creatorOwesNothing())
		generate(t, f)
		emittedAfterGenerate := len(f.emitter.emitted)

		_, err := f.service.Confirm(ctx, testTripID, 0, payerID, &ConfirmRequest{Role: "payer"})
		require.NoError(t, err)
		assert.Len(t, f.emitter.emitted, emittedAfterGenerate)

		_, err = f.service.Confirm(ctx, testTripID, 0, creatorID, &ConfirmRequest{Role: "receiver"})
		require.NoError(t, err)
		require.Len(t, f.emitter.emitted, emittedAfterGenerate+1)
		assert.Equal(t, events.EventSettlementConfirmed, f.emitter.emitted[len(f.emitter.emitted)-1].Type)
	})
}
