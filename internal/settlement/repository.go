package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles settlement batch persistence. The batch lives in an
// ordered, index-addressable table keyed by (trip_id, idx).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const settlementColumns = `trip_id, idx, from_user_id, to_user_id, amount_cents, due_at,
	payer_confirmed, receiver_confirmed, settled_at, trust_evaluated, created_at`

func scanSettlement(scan func(...interface{}) error) (*Settlement, error) {
	s := &Settlement{}
	err := scan(
		&s.TripID, &s.Idx, &s.FromUserID, &s.ToUserID, &s.AmountCents, &s.DueAt,
		&s.PayerConfirmed, &s.ReceiverConfirmed, &s.SettledAt, &s.TrustEvaluated, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// InsertBatch persists a freshly generated batch. The trips row's
// settlements_generated flag is flipped inside the same transaction as
// the inserts; a concurrent caller that loses the race observes the flag
// already set and gets inserted=false, so exactly one batch ever lands.
func (r *Repository) InsertBatch(ctx context.Context, tripID int64, batch []*Settlement) (inserted bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trips SET settlements_generated = TRUE
		WHERE id = $1 AND NOT settlements_generated
	`, tripID)
	if err != nil {
		return false, fmt.Errorf("failed to flag settlement generation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Another call already generated the batch.
		return false, nil
	}

	for _, s := range batch {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settlements (trip_id, idx, from_user_id, to_user_id, amount_cents, due_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.TripID, s.Idx, s.FromUserID, s.ToUserID, s.AmountCents, s.DueAt, s.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return false, nil
			}
			return false, fmt.Errorf("failed to insert settlement %d: %w", s.Idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit settlement batch: %w", err)
	}

	return true, nil
}

// ListByTrip retrieves the trip's settlement batch in index order
func (r *Repository) ListByTrip(ctx context.Context, tripID int64) ([]*Settlement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE trip_id = $1
		ORDER BY idx
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var batch []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		batch = append(batch, s)
	}

	return batch, rows.Err()
}

// GetByTripAndIdx retrieves one settlement row
func (r *Repository) GetByTripAndIdx(ctx context.Context, tripID int64, idx int) (*Settlement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE trip_id = $1 AND idx = $2
	`, tripID, idx)

	s, err := scanSettlement(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// Confirm records one side's acknowledgement under a row lock, so two
// near-simultaneous confirmations cannot both miss the settle transition
// or both claim it. transitioned is true only for the single call that
// first observes both flags set; that call also flips trust_evaluated.
func (r *Repository) Confirm(ctx context.Context, tripID int64, idx int, role ConfirmRole) (settlement *Settlement, transitioned bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+settlementColumns+`
		FROM settlements
		WHERE trip_id = $1 AND idx = $2
		FOR UPDATE
	`, tripID, idx)

	s, err := scanSettlement(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to lock settlement: %w", err)
	}

	// Terminal state: confirmations are replay-safe no-ops.
	if s.IsSettled() {
		return s, false, tx.Commit()
	}

	switch role {
	case RolePayer:
		s.PayerConfirmed = true
	case RoleReceiver:
		s.ReceiverConfirmed = true
	}

	if s.PayerConfirmed && s.ReceiverConfirmed {
		now := time.Now().UTC()
		s.SettledAt = &now
		if !s.TrustEvaluated {
			s.TrustEvaluated = true
			transitioned = true
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE settlements
		SET payer_confirmed = $3, receiver_confirmed = $4, settled_at = $5, trust_evaluated = $6
		WHERE trip_id = $1 AND idx = $2
	`, tripID, idx, s.PayerConfirmed, s.ReceiverConfirmed, s.SettledAt, s.TrustEvaluated)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	return s, transitioned, nil
}
