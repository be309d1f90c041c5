package trip

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles trip, roster, and role data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new trip repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a trip, its creator's roster entry, and the trip's wallet
// in one transaction. The wallet exists for exactly as long as its trip.
func (r *Repository) Create(ctx context.Context, creatorID int64, req *CreateTripRequest) (*Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	trip := &Trip{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO trips (name, created_by, status)
		VALUES ($1, $2, $3)
		RETURNING id, name, created_by, status, settlements_generated, created_at
	`, req.Name, creatorID, StatusPlanning).Scan(
		&trip.ID,
		&trip.Name,
		&trip.CreatedBy,
		&trip.Status,
		&trip.SettlementsGenerated,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES ($1, $2)
	`, trip.ID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator to roster: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (trip_id, manager, budget_cents, total_spend_cents, expense_permission)
		VALUES ($1, $2, 0, 0, 'all')
	`, trip.ID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trip creation: %w", err)
	}

	return trip, nil
}

// GetByID retrieves a trip by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Trip, error) {
	query := `
		SELECT id, name, created_by, status, settlements_generated, created_at, completed_at
		FROM trips
		WHERE id = $1
	`

	trip := &Trip{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.Name,
		&trip.CreatedBy,
		&trip.Status,
		&trip.SettlementsGenerated,
		&trip.CreatedAt,
		&trip.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return trip, nil
}

// GetParticipants retrieves the roster for a trip
func (r *Repository) GetParticipants(ctx context.Context, tripID int64) ([]*Participant, error) {
	query := `
		SELECT id, trip_id, user_id, joined_at
		FROM trip_participants
		WHERE trip_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// AddParticipant adds a user to the trip roster
func (r *Repository) AddParticipant(ctx context.Context, tripID, userID int64) (*Participant, error) {
	query := `
		INSERT INTO trip_participants (trip_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
		RETURNING id, trip_id, user_id, joined_at
	`

	p := &Participant{}
	err := r.db.QueryRowContext(ctx, query, tripID, userID).Scan(&p.ID, &p.TripID, &p.UserID, &p.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	return p, nil
}

// IsParticipant reports whether the user is on the trip roster
func (r *Repository) IsParticipant(ctx context.Context, tripID, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM trip_participants WHERE trip_id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, tripID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check roster: %w", err)
	}
	return exists, nil
}

// GrantRole activates a delegated role for a participant
func (r *Repository) GrantRole(ctx context.Context, tripID, userID int64, role Role) error {
	query := `
		INSERT INTO trip_roles (trip_id, user_id, role, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (trip_id, user_id, role) DO UPDATE SET active = TRUE, granted_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, tripID, userID, role); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// RevokeRole deactivates a delegated role for a participant
func (r *Repository) RevokeRole(ctx context.Context, tripID, userID int64, role Role) error {
	query := `UPDATE trip_roles SET active = FALSE WHERE trip_id = $1 AND user_id = $2 AND role = $3`
	if _, err := r.db.ExecContext(ctx, query, tripID, userID, role); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}

// HasActiveRole reports whether the user currently holds the role on the trip
func (r *Repository) HasActiveRole(ctx context.Context, tripID, userID int64, role Role) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM trip_roles
			WHERE trip_id = $1 AND user_id = $2 AND role = $3 AND active
		)
	`
	if err := r.db.QueryRowContext(ctx, query, tripID, userID, role).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}

// GetActiveRoles retrieves the active roles for every participant of a trip
func (r *Repository) GetActiveRoles(ctx context.Context, tripID int64) (map[int64][]Role, error) {
	query := `
		SELECT user_id, role
		FROM trip_roles
		WHERE trip_id = $1 AND active
		ORDER BY user_id, role
	`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[int64][]Role)
	for rows.Next() {
		var userID int64
		var role Role
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles[userID] = append(roles[userID], role)
	}

	return roles, nil
}

// MarkCompleted transitions a trip from planning to completed. Returns the
// updated trip, or nil when the trip was not in the planning state.
func (r *Repository) MarkCompleted(ctx context.Context, tripID int64) (*Trip, error) {
	query := `
		UPDATE trips
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING id, name, created_by, status, settlements_generated, created_at, completed_at
	`

	trip := &Trip{}
	err := r.db.QueryRowContext(ctx, query, tripID, StatusCompleted, time.Now().UTC(), StatusPlanning).Scan(
		&trip.ID,
		&trip.Name,
		&trip.CreatedBy,
		&trip.Status,
		&trip.SettlementsGenerated,
		&trip.CreatedAt,
		&trip.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to complete trip: %w", err)
	}

	return trip, nil
}
