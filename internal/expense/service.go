package expense

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/triply/tripledger/internal/events"
	"github.com/triply/tripledger/internal/expense/split"
	"github.com/triply/tripledger/internal/metrics"
	"github.com/triply/tripledger/internal/money"
	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/trip"
	"github.com/triply/tripledger/internal/wallet"
)

// Common errors
var (
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrTripLocked         = errors.New("trip is completed; the wallet is locked")
	ErrNotAuthorized      = errors.New("not authorized to manage expenses")
	ErrNotParticipant     = errors.New("user is not a trip participant")
	ErrUnknownCategory    = errors.New("unknown expense category")
	ErrInvalidAmount      = errors.New("invalid expense amount")
	ErrSplitMismatch      = errors.New("shares must sum to the expense amount")
	ErrMissingShareAmount = errors.New("share amount required for exact splits")
)

// Store is the persistence surface the expense service needs.
type Store interface {
	Create(ctx context.Context, e *Expense) (*Expense, error)
	Update(ctx context.Context, e *Expense, oldAmountCents int64) (*Expense, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	ListByWalletID(ctx context.Context, walletID int64, limit, offset int) ([]*Expense, int, error)
	ListAllByWalletID(ctx context.Context, walletID int64) ([]*Expense, error)
}

// WalletStore loads wallets for permission and ownership checks.
type WalletStore interface {
	GetByID(ctx context.Context, id int64) (*wallet.Wallet, error)
}

// TripStore loads trips and answers roster membership.
type TripStore interface {
	GetByID(ctx context.Context, id int64) (*trip.Trip, error)
	IsParticipant(ctx context.Context, tripID, userID int64) (bool, error)
}

// Service handles expense business logic
type Service struct {
	store   Store
	wallets WalletStore
	trips   TripStore
	policy  *policy.Policy
	splits  *split.Factory
	emitter events.Emitter
}

// NewService creates a new expense service with dependencies injected
func NewService(store Store, wallets WalletStore, trips TripStore, p *policy.Policy, splits *split.Factory, emitter events.Emitter) *Service {
	return &Service{
		store:   store,
		wallets: wallets,
		trips:   trips,
		policy:  p,
		splits:  splits,
		emitter: emitter,
	}
}

// Add records a new expense on a wallet. The wallet's totalSpend is
// adjusted in the same transaction as the expense write.
func (s *Service) Add(ctx context.Context, walletID, actorID int64, req *CreateExpenseRequest) (*Expense, error) {
	w, t, err := s.walletAndTrip(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if t.IsCompleted() {
		return nil, ErrTripLocked
	}

	allowed, err := s.policy.CanAddExpense(ctx, actorID, t, w.ExpensePermission)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	if ok, err := s.trips.IsParticipant(ctx, t.ID, actorID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotParticipant
	}

	amountCents, err := money.PositiveCents(req.Amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if !ValidCategory(req.Category) {
		return nil, ErrUnknownCategory
	}

	paidBy, splitAmong, err := s.resolveShares(req.SplitType, amountCents, actorID, req.PaidBy, req.SplitAmong)
	if err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, t.ID, paidBy, splitAmong); err != nil {
		return nil, err
	}

	expenseDate := time.Now().UTC()
	if req.ExpenseDate != nil {
		expenseDate = *req.ExpenseDate
	}

	e := &Expense{
		WalletID:    walletID,
		Description: req.Description,
		AmountCents: amountCents,
		Category:    req.Category,
		ExpenseDate: expenseDate,
		AddedBy:     actorID,
		PaidBy:      paidBy,
		SplitAmong:  splitAmong,
	}

	e, err = s.store.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	metrics.ExpenseWrites.WithLabelValues("add").Inc()
	s.emitter.Emit(ctx, events.New(events.EventExpenseAdded, t.ID, actorID, map[string]interface{}{
		"expense_id": e.ID,
		"amount":     money.FromCents(e.AmountCents).StringFixed(2),
	}))

	return e, nil
}

// Update edits an existing expense. When shares are not re-supplied the
// existing ones are kept and must still sum to the (possibly new) amount.
func (s *Service) Update(ctx context.Context, expenseID, actorID int64, req *UpdateExpenseRequest) (*Expense, error) {
	e, err := s.store.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}

	w, t, err := s.walletAndTrip(ctx, e.WalletID)
	if err != nil {
		return nil, err
	}
	if t.IsCompleted() {
		return nil, ErrTripLocked
	}

	allowed, err := s.policy.CanManageExpense(ctx, actorID, t, w.ExpensePermission)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	oldAmount := e.AmountCents

	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Category != nil {
		if !ValidCategory(*req.Category) {
			return nil, ErrUnknownCategory
		}
		e.Category = *req.Category
	}
	if req.ExpenseDate != nil {
		e.ExpenseDate = *req.ExpenseDate
	}
	if req.Amount != nil {
		cents, err := money.PositiveCents(*req.Amount)
		if err != nil {
			return nil, ErrInvalidAmount
		}
		e.AmountCents = cents
	}

	if req.PaidBy != nil || req.SplitAmong != nil {
		paidByIn := req.PaidBy
		splitIn := req.SplitAmong
		if paidByIn == nil {
			paidByIn = sharesToInputs(e.PaidBy)
		}
		if splitIn == nil {
			splitIn = sharesToInputs(e.SplitAmong)
		}
		paidBy, splitAmong, err := s.resolveShares(req.SplitType, e.AmountCents, actorID, paidByIn, splitIn)
		if err != nil {
			return nil, err
		}
		e.PaidBy = paidBy
		e.SplitAmong = splitAmong
	}

	// Whether shares were re-supplied or kept, both sums must match the
	// final amount.
	if SumCents(e.PaidBy) != e.AmountCents || SumCents(e.SplitAmong) != e.AmountCents {
		return nil, ErrSplitMismatch
	}
	if err := s.checkParticipants(ctx, t.ID, e.PaidBy, e.SplitAmong); err != nil {
		return nil, err
	}

	e, err = s.store.Update(ctx, e, oldAmount)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}

	metrics.ExpenseWrites.WithLabelValues("update").Inc()
	s.emitter.Emit(ctx, events.New(events.EventExpenseUpdated, t.ID, actorID, map[string]interface{}{
		"expense_id": e.ID,
		"amount":     money.FromCents(e.AmountCents).StringFixed(2),
	}))

	return e, nil
}

// Delete removes an expense and subtracts its amount from the wallet.
func (s *Service) Delete(ctx context.Context, expenseID, actorID int64) error {
	e, err := s.store.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrExpenseNotFound
	}

	w, t, err := s.walletAndTrip(ctx, e.WalletID)
	if err != nil {
		return err
	}
	if t.IsCompleted() {
		return ErrTripLocked
	}

	allowed, err := s.policy.CanManageExpense(ctx, actorID, t, w.ExpensePermission)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotAuthorized
	}

	if err := s.store.Delete(ctx, expenseID); err != nil {
		return err
	}

	metrics.ExpenseWrites.WithLabelValues("delete").Inc()
	s.emitter.Emit(ctx, events.New(events.EventExpenseDeleted, t.ID, actorID, map[string]interface{}{
		"expense_id": expenseID,
	}))

	return nil
}

// GetByID retrieves an expense with its shares. Like every ledger view,
// it is visible to trip participants only.
func (s *Service) GetByID(ctx context.Context, expenseID, actorID int64) (*Expense, error) {
	e, err := s.store.GetByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}

	if err := s.requireParticipant(ctx, e.WalletID, actorID); err != nil {
		return nil, err
	}

	return e, nil
}

// ListByWallet retrieves a page of expenses for a wallet, visible to trip
// participants only.
func (s *Service) ListByWallet(ctx context.Context, walletID, actorID int64, page, limit int) ([]*Expense, int, error) {
	if err := s.requireParticipant(ctx, walletID, actorID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit
	return s.store.ListByWalletID(ctx, walletID, limit, offset)
}

func (s *Service) requireParticipant(ctx context.Context, walletID, actorID int64) error {
	_, t, err := s.walletAndTrip(ctx, walletID)
	if err != nil {
		return err
	}
	ok, err := s.trips.IsParticipant(ctx, t.ID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

func (s *Service) walletAndTrip(ctx context.Context, walletID int64) (*wallet.Wallet, *trip.Trip, error) {
	w, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return nil, nil, ErrWalletNotFound
	}

	t, err := s.trips.GetByID(ctx, w.TripID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, trip.ErrTripNotFound
	}

	return w, t, nil
}

// resolveShares turns request share inputs into exact per-person amounts.
// PaidBy defaults to the actor fronting the full amount; SplitAmong is
// resolved with the requested strategy (EXACT when unspecified).
func (s *Service) resolveShares(splitType string, amountCents, actorID int64, paidByIn, splitIn []*ShareInput) ([]Share, []Share, error) {
	if len(splitIn) == 0 {
		return nil, nil, ErrSplitMismatch
	}

	if splitType == "" {
		splitType = string(split.SplitTypeExact)
	}
	strategy, err := s.splits.Create(split.SplitType(splitType))
	if err != nil {
		return nil, nil, err
	}

	splitAmong, err := applyStrategy(strategy, amountCents, splitIn)
	if err != nil {
		return nil, nil, err
	}

	var paidBy []Share
	if len(paidByIn) == 0 {
		paidBy = []Share{{UserID: actorID, AmountCents: amountCents}}
	} else {
		// Payer amounts are always explicit.
		exact := &split.ExactStrategy{}
		paidBy, err = applyStrategy(exact, amountCents, paidByIn)
		if err != nil {
			return nil, nil, err
		}
	}

	return paidBy, splitAmong, nil
}

func applyStrategy(strategy split.Strategy, amountCents int64, inputs []*ShareInput) ([]Share, error) {
	splitInputs := make([]split.Input, len(inputs))
	for i, in := range inputs {
		cents := int64(0)
		if in.Amount != nil {
			c, err := money.ToCents(*in.Amount)
			if err != nil {
				return nil, ErrInvalidAmount
			}
			cents = c
		} else if strategy.Type() == split.SplitTypeExact {
			return nil, ErrMissingShareAmount
		}

		bps := int64(0)
		if strategy.Type() == split.SplitTypePercentage {
			if in.Percent == nil {
				return nil, split.ErrMissingPercentage
			}
			// Basis points keep percentage math integral; more than two
			// decimal places cannot be represented.
			scaled := in.Percent.Mul(decimal.NewFromInt(100))
			if !scaled.IsInteger() {
				return nil, split.ErrPercentageBounds
			}
			bps = scaled.IntPart()
		}

		splitInputs[i] = split.Input{UserID: in.UserID, AmountCents: cents, PercentBps: bps}
	}

	outputs, err := strategy.Calculate(amountCents, splitInputs)
	if err != nil {
		if errors.Is(err, split.ErrInvalidExactAmounts) {
			return nil, ErrSplitMismatch
		}
		return nil, err
	}

	shares := make([]Share, len(outputs))
	for i, out := range outputs {
		shares[i] = Share{UserID: out.UserID, AmountCents: out.AmountCents}
	}
	return shares, nil
}

func sharesToInputs(shares []Share) []*ShareInput {
	inputs := make([]*ShareInput, len(shares))
	for i, s := range shares {
		d := money.FromCents(s.AmountCents)
		inputs[i] = &ShareInput{UserID: s.UserID, Amount: &d}
	}
	return inputs
}

// checkParticipants verifies every referenced user is on the trip roster.
func (s *Service) checkParticipants(ctx context.Context, tripID int64, paidBy, splitAmong []Share) error {
	seen := make(map[int64]struct{})
	for _, share := range append(append([]Share{}, paidBy...), splitAmong...) {
		if _, done := seen[share.UserID]; done {
			continue
		}
		seen[share.UserID] = struct{}{}

		ok, err := s.trips.IsParticipant(ctx, tripID, share.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotParticipant
		}
	}
	return nil
}
