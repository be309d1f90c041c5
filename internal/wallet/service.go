package wallet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/triply/tripledger/internal/money"
	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/trip"
)

// Common errors
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrNotAuthorized     = errors.New("not authorized to change wallet settings")
	ErrUnknownPermission = errors.New("unknown expense permission")
	ErrNegativeBudget    = errors.New("budget must not be negative")
)

// Store is the persistence surface the wallet service needs.
type Store interface {
	GetByTripID(ctx context.Context, tripID int64) (*Wallet, error)
	GetByID(ctx context.Context, id int64) (*Wallet, error)
	UpdateSettings(ctx context.Context, tripID int64, permission *policy.ExpensePermission, budgetCents *int64) (*Wallet, error)
	RecomputeTotalSpend(ctx context.Context, walletID int64) (previous, recomputed int64, err error)
}

// TripGetter loads trips for authorization decisions.
type TripGetter interface {
	GetByID(ctx context.Context, id int64) (*trip.Trip, error)
}

// Service handles wallet business logic
type Service struct {
	store  Store
	trips  TripGetter
	policy *policy.Policy
}

// NewService creates a new wallet service
func NewService(store Store, trips TripGetter, p *policy.Policy) *Service {
	return &Service{store: store, trips: trips, policy: p}
}

// GetByTrip retrieves the wallet for a trip
func (s *Service) GetByTrip(ctx context.Context, tripID int64) (*Wallet, error) {
	w, err := s.store.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	return w, nil
}

// UpdateSettings changes the wallet's expense permission and/or budget.
// Only the trip creator or a captain may change settings.
func (s *Service) UpdateSettings(ctx context.Context, tripID, actorID int64, req *UpdateSettingsRequest) (*Wallet, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, trip.ErrTripNotFound
	}

	allowed, err := s.policy.CanManageWallet(ctx, actorID, t)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	if req.ExpensePermission != nil && !policy.ValidPermission(*req.ExpensePermission) {
		return nil, ErrUnknownPermission
	}

	var budgetCents *int64
	if req.Budget != nil {
		cents, err := money.NonNegativeCents(*req.Budget)
		if err != nil {
			if errors.Is(err, money.ErrNegative) {
				return nil, ErrNegativeBudget
			}
			return nil, err
		}
		budgetCents = &cents
	}

	w, err := s.store.UpdateSettings(ctx, tripID, req.ExpensePermission, budgetCents)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}

	return w, nil
}

// Reconcile recomputes the wallet's totalSpend from its expenses and
// replaces the cache. Internal maintenance primitive; drift means a
// delta-adjustment bug and is logged for follow-up.
func (s *Service) Reconcile(ctx context.Context, walletID int64) (previous, recomputed int64, err error) {
	w, err := s.store.GetByID(ctx, walletID)
	if err != nil {
		return 0, 0, err
	}
	if w == nil {
		return 0, 0, ErrWalletNotFound
	}

	previous, recomputed, err = s.store.RecomputeTotalSpend(ctx, walletID)
	if err != nil {
		return 0, 0, err
	}

	if previous != recomputed {
		slog.WarnContext(ctx, "wallet totalSpend drift reconciled",
			"wallet_id", walletID,
			"previous_cents", previous,
			"recomputed_cents", recomputed,
		)
	}

	return previous, recomputed, nil
}
