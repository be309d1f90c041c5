package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/triply/tripledger/internal/events"
	"github.com/triply/tripledger/internal/expense"
	"github.com/triply/tripledger/internal/metrics"
	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/trip"
	"github.com/triply/tripledger/internal/wallet"
)

// Common errors
var (
	ErrTripNotFound       = errors.New("trip not found")
	ErrTripNotCompleted   = errors.New("trip is not completed")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotParticipant     = errors.New("user is not a trip participant")
	ErrUnknownRole        = errors.New("unknown confirmation role")
	ErrRoleMismatch       = errors.New("actor is not on that side of the settlement")
)

// Store is the persistence surface the settlement service needs.
type Store interface {
	InsertBatch(ctx context.Context, tripID int64, batch []*Settlement) (bool, error)
	ListByTrip(ctx context.Context, tripID int64) ([]*Settlement, error)
	GetByTripAndIdx(ctx context.Context, tripID int64, idx int) (*Settlement, error)
	Confirm(ctx context.Context, tripID int64, idx int, role ConfirmRole) (*Settlement, bool, error)
}

// TripStore loads trips and answers roster membership.
type TripStore interface {
	GetByID(ctx context.Context, id int64) (*trip.Trip, error)
	IsParticipant(ctx context.Context, tripID, userID int64) (bool, error)
}

// WalletStore resolves a trip's wallet so the generator can read its ledger.
type WalletStore interface {
	GetByTripID(ctx context.Context, tripID int64) (*wallet.Wallet, error)
}

// ExpenseLister provides the full expense set a batch is derived from.
type ExpenseLister interface {
	ListAllByWalletID(ctx context.Context, walletID int64) ([]*expense.Expense, error)
}

// Service drives settlement generation and the confirmation state machine
type Service struct {
	store    Store
	trips    TripStore
	wallets  WalletStore
	expenses ExpenseLister
	policy   *policy.Policy
	emitter  events.Emitter
	trust    events.TrustAwarder
	grace    time.Duration
}

// NewService creates a new settlement service with dependencies injected
func NewService(store Store, trips TripStore, wallets WalletStore, expenses ExpenseLister, p *policy.Policy, emitter events.Emitter, trust events.TrustAwarder, grace time.Duration) *Service {
	return &Service{
		store:    store,
		trips:    trips,
		wallets:  wallets,
		expenses: expenses,
		policy:   p,
		emitter:  emitter,
		trust:    trust,
		grace:    grace,
	}
}

// Generate produces the trip's settlement batch. It is idempotent: once a
// batch exists, every later call returns it unchanged, including the call
// that loses a concurrent generation race.
func (s *Service) Generate(ctx context.Context, tripID, actorID int64) ([]*Settlement, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTripNotFound
	}
	if !s.policy.CanGenerateSettlements(actorID, t) {
		return nil, ErrNotAuthorized
	}
	if !t.IsCompleted() {
		return nil, ErrTripNotCompleted
	}

	if t.SettlementsGenerated {
		return s.store.ListByTrip(ctx, tripID)
	}

	balances, err := s.balances(ctx, tripID)
	if err != nil {
		return nil, err
	}

	batch := GenerateBatch(tripID, balances, time.Now().UTC(), s.grace)

	inserted, err := s.store.InsertBatch(ctx, tripID, batch)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race; the winner's batch is the trip's batch.
		return s.store.ListByTrip(ctx, tripID)
	}

	metrics.SettlementBatches.Inc()
	s.emitter.Emit(ctx, events.New(events.EventSettlementGenerated, tripID, actorID, map[string]interface{}{
		"count": len(batch),
	}))

	return batch, nil
}

// ListByTrip returns the trip's settlement batch, visible to any participant.
func (s *Service) ListByTrip(ctx context.Context, tripID, actorID int64) ([]*Settlement, error) {
	if err := s.requireParticipant(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListByTrip(ctx, tripID)
}

// Balances recomputes the trip's net balance vector from the full expense
// set. It reads only, so participants can audit positions at any time,
// before or after generation.
func (s *Service) Balances(ctx context.Context, tripID, actorID int64) ([]Balance, error) {
	if err := s.requireParticipant(ctx, tripID, actorID); err != nil {
		return nil, err
	}
	return s.balances(ctx, tripID)
}

// Confirm records one side's acknowledgement of a settlement and, when
// both sides have confirmed, settles it. The actor must be the
// participant on the confirming side. Confirming an already settled row
// is a no-op returning the terminal state.
func (s *Service) Confirm(ctx context.Context, tripID int64, idx int, actorID int64, req *ConfirmRequest) (*Settlement, error) {
	role := ConfirmRole(req.Role)
	if !ValidConfirmRole(role) {
		return nil, ErrUnknownRole
	}

	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTripNotFound
	}

	existing, err := s.store.GetByTripAndIdx(ctx, tripID, idx)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrSettlementNotFound
	}

	// from/to never change after generation, so the binding check can
	// run outside the confirmation lock.
	switch role {
	case RolePayer:
		if existing.FromUserID != actorID {
			return nil, ErrRoleMismatch
		}
	case RoleReceiver:
		if existing.ToUserID != actorID {
			return nil, ErrRoleMismatch
		}
	}

	updated, transitioned, err := s.store.Confirm(ctx, tripID, idx, role)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSettlementNotFound
	}

	metrics.SettlementsConfirmed.WithLabelValues(string(role)).Inc()

	if transitioned {
		outcome := events.OutcomeSettlePayment
		if !updated.OnTime() {
			outcome = events.OutcomeLateSettlement
		}
		// Best-effort: the settlement is already committed, a scoring
		// failure must not undo it.
		if err := s.trust.Award(ctx, updated.FromUserID, outcome, tripID, idx); err != nil {
			metrics.TrustAwardFailures.Inc()
			slog.ErrorContext(ctx, "trust award failed",
				"trip_id", tripID, "idx", idx, "user_id", updated.FromUserID, "error", err)
		}

		s.emitter.Emit(ctx, events.New(events.EventSettlementConfirmed, tripID, actorID, map[string]interface{}{
			"idx":    idx,
			"status": string(StatusSettled),
		}))
	}

	return updated, nil
}

func (s *Service) balances(ctx context.Context, tripID int64) ([]Balance, error) {
	w, err := s.wallets.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrTripNotFound
	}

	expenses, err := s.expenses.ListAllByWalletID(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	return ComputeBalances(expenses), nil
}

func (s *Service) requireParticipant(ctx context.Context, tripID, actorID int64) error {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTripNotFound
	}
	ok, err := s.trips.IsParticipant(ctx, tripID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}
