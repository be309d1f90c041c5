package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/triply/tripledger/internal/policy"
)

// Repository handles wallet data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new wallet repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const walletColumns = `id, trip_id, manager, budget_cents, total_spend_cents, expense_permission, created_at, updated_at`

func scanWallet(row *sql.Row) (*Wallet, error) {
	w := &Wallet{}
	err := row.Scan(
		&w.ID,
		&w.TripID,
		&w.Manager,
		&w.BudgetCents,
		&w.TotalSpendCents,
		&w.ExpensePermission,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// GetByTripID retrieves the wallet for a trip
func (r *Repository) GetByTripID(ctx context.Context, tripID int64) (*Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE trip_id = $1`
	w, err := scanWallet(r.db.QueryRowContext(ctx, query, tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// GetByID retrieves a wallet by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	w, err := scanWallet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// UpdateSettings changes the wallet's expense permission and/or budget
func (r *Repository) UpdateSettings(ctx context.Context, tripID int64, permission *policy.ExpensePermission, budgetCents *int64) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET expense_permission = COALESCE($2, expense_permission),
		    budget_cents = COALESCE($3, budget_cents),
		    updated_at = NOW()
		WHERE trip_id = $1
		RETURNING ` + walletColumns

	w, err := scanWallet(r.db.QueryRowContext(ctx, query, tripID, permission, budgetCents))
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet settings: %w", err)
	}
	return w, nil
}

// RecomputeTotalSpend replaces the cached totalSpend with the sum of the
// wallet's live expenses, returning both values so callers can log drift.
// This is the reconciliation path for delta-adjustment bugs.
func (r *Repository) RecomputeTotalSpend(ctx context.Context, walletID int64) (previous, recomputed int64, err error) {
	query := `
		UPDATE wallets w
		SET total_spend_cents = sub.total, updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(amount_cents), 0) AS total
			FROM expenses
			WHERE wallet_id = $1
		) sub, (
			SELECT total_spend_cents AS prev FROM wallets WHERE id = $1
		) old
		WHERE w.id = $1
		RETURNING old.prev, sub.total
	`

	err = r.db.QueryRowContext(ctx, query, walletID).Scan(&previous, &recomputed)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to recompute total spend: %w", err)
	}

	return previous, recomputed, nil
}
