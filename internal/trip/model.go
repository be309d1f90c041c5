package trip

import "time"

// Status represents the lifecycle status of a trip
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusCompleted Status = "completed"
)

// Role represents a delegated trip-scoped role
type Role string

const (
	// RoleAccountant grants expense-management rights beyond the creator.
	RoleAccountant Role = "accountant"
	// RoleCaptain grants wallet-settings rights beyond the creator.
	RoleCaptain Role = "captain"
)

// ValidRole reports whether s names a known delegated role.
func ValidRole(s Role) bool {
	return s == RoleAccountant || s == RoleCaptain
}

// Trip represents a trip whose shared expenses this engine tracks
type Trip struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	Status    Status    `json:"status"`

	// SettlementsGenerated flips once the settlement batch exists; it is
	// the exactly-once guard for generation.
	SettlementsGenerated bool       `json:"settlements_generated"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the trip is closed to new expenses.
func (t *Trip) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Participant represents a user's membership in a trip
type Participant struct {
	ID       int64     `json:"id"`
	TripID   int64     `json:"trip_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoleGrant represents a delegated role held by a participant
type RoleGrant struct {
	ID        int64     `json:"id"`
	TripID    int64     `json:"trip_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	GrantedAt time.Time `json:"granted_at"`
}
