package expense

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// share kinds in expense_shares
const (
	kindPaidBy     = "paid_by"
	kindSplitAmong = "split_among"
)

// Repository handles expense data persistence. Every mutation applies the
// wallet's totalSpend delta inside the same transaction as the expense
// write, so the aggregate can never observe a half-applied expense.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an expense with its shares and adds its amount to the
// wallet's totalSpend, all in one transaction.
func (r *Repository) Create(ctx context.Context, e *Expense) (*Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO expenses (wallet_id, description, amount_cents, category, expense_date, added_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, e.WalletID, e.Description, e.AmountCents, e.Category, e.ExpenseDate, e.AddedBy).Scan(
		&e.ID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertShares(ctx, tx, e.ID, kindPaidBy, e.PaidBy); err != nil {
		return nil, err
	}
	if err := insertShares(ctx, tx, e.ID, kindSplitAmong, e.SplitAmong); err != nil {
		return nil, err
	}

	if err := adjustTotalSpend(ctx, tx, e.WalletID, e.AmountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense creation: %w", err)
	}

	return e, nil
}

// Update rewrites an expense and its shares and applies the amount delta
// to the wallet's totalSpend, all in one transaction.
func (r *Repository) Update(ctx context.Context, e *Expense, oldAmountCents int64) (*Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		UPDATE expenses
		SET description = $2, amount_cents = $3, category = $4, expense_date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, e.ID, e.Description, e.AmountCents, e.Category, e.ExpenseDate).Scan(&e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, e.ID); err != nil {
		return nil, fmt.Errorf("failed to clear shares: %w", err)
	}
	if err := insertShares(ctx, tx, e.ID, kindPaidBy, e.PaidBy); err != nil {
		return nil, err
	}
	if err := insertShares(ctx, tx, e.ID, kindSplitAmong, e.SplitAmong); err != nil {
		return nil, err
	}

	if err := adjustTotalSpend(ctx, tx, e.WalletID, e.AmountCents-oldAmountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expense update: %w", err)
	}

	return e, nil
}

// Delete removes an expense with its shares and subtracts its amount from
// the wallet's totalSpend, all in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}

	var walletID, amountCents int64
	err = tx.QueryRowContext(ctx, `
		DELETE FROM expenses WHERE id = $1
		RETURNING wallet_id, amount_cents
	`, id).Scan(&walletID, &amountCents)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("expense not found")
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := adjustTotalSpend(ctx, tx, walletID, -amountCents); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense deletion: %w", err)
	}

	return nil
}

// GetByID retrieves an expense with its shares
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	e := &Expense{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, wallet_id, description, amount_cents, category, expense_date, added_by, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.WalletID, &e.Description, &e.AmountCents, &e.Category,
		&e.ExpenseDate, &e.AddedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := r.loadShares(ctx, []*Expense{e}); err != nil {
		return nil, err
	}

	return e, nil
}

// ListByWalletID retrieves a page of expenses for a wallet, newest first
func (r *Repository) ListByWalletID(ctx context.Context, walletID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE wallet_id = $1`, walletID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, description, amount_cents, category, expense_date, added_by, created_at, updated_at
		FROM expenses
		WHERE wallet_id = $1
		ORDER BY expense_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadShares(ctx, expenses); err != nil {
		return nil, 0, err
	}

	return expenses, total, nil
}

// ListAllByWalletID retrieves every expense for a wallet in insertion
// order. The settlement generator depends on this ordering for its
// determinism guarantee.
func (r *Repository) ListAllByWalletID(ctx context.Context, walletID int64) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, description, amount_cents, category, expense_date, added_by, created_at, updated_at
		FROM expenses
		WHERE wallet_id = $1
		ORDER BY id
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadShares(ctx, expenses); err != nil {
		return nil, err
	}

	return expenses, nil
}

func scanExpenses(rows *sql.Rows) ([]*Expense, error) {
	var expenses []*Expense
	for rows.Next() {
		e := &Expense{}
		if err := rows.Scan(
			&e.ID, &e.WalletID, &e.Description, &e.AmountCents, &e.Category,
			&e.ExpenseDate, &e.AddedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// loadShares bulk-loads the share rows for a set of expenses
func (r *Repository) loadShares(ctx context.Context, expenses []*Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	ids := make([]int64, len(expenses))
	byID := make(map[int64]*Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT expense_id, user_id, amount_cents, kind
		FROM expense_shares
		WHERE expense_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID int64
		var share Share
		var kind string
		if err := rows.Scan(&expenseID, &share.UserID, &share.AmountCents, &kind); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		e := byID[expenseID]
		switch kind {
		case kindPaidBy:
			e.PaidBy = append(e.PaidBy, share)
		case kindSplitAmong:
			e.SplitAmong = append(e.SplitAmong, share)
		}
	}

	return rows.Err()
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID int64, kind string, shares []Share) error {
	for _, s := range shares {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expense_shares (expense_id, user_id, amount_cents, kind)
			VALUES ($1, $2, $3, $4)
		`, expenseID, s.UserID, s.AmountCents, kind)
		if err != nil {
			return fmt.Errorf("failed to insert %s share: %w", kind, err)
		}
	}
	return nil
}

// adjustTotalSpend applies a delta to the wallet's cached totalSpend as a
// single atomic increment, floored at zero to absorb prior drift.
func adjustTotalSpend(ctx context.Context, tx *sql.Tx, walletID, deltaCents int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET total_spend_cents = GREATEST(total_spend_cents + $2, 0), updated_at = NOW()
		WHERE id = $1
	`, walletID, deltaCents)
	if err != nil {
		return fmt.Errorf("failed to adjust wallet total spend: %w", err)
	}
	return nil
}
