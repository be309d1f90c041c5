package settlement

import "time"

// Status is the derived confirmation state of a settlement
type Status string

const (
	StatusPending            Status = "pending"
	StatusPartiallyConfirmed Status = "partially_confirmed"
	StatusSettled            Status = "settled"
)

// ConfirmRole identifies which side of a settlement is confirming
type ConfirmRole string

const (
	RolePayer    ConfirmRole = "payer"
	RoleReceiver ConfirmRole = "receiver"
)

// ValidConfirmRole reports whether r names a known confirmation role.
func ValidConfirmRole(r ConfirmRole) bool {
	return r == RolePayer || r == RoleReceiver
}

// Settlement is one directed transfer obligation within a trip's batch.
// Idx is its stable position in the batch and the external identifier
// used by confirmation calls. The batch is immutable in shape; only the
// confirmation fields mutate.
type Settlement struct {
	TripID      int64     `json:"trip_id"`
	Idx         int       `json:"idx"`
	FromUserID  int64     `json:"from_user_id"`
	ToUserID    int64     `json:"to_user_id"`
	AmountCents int64     `json:"amount_cents"`
	DueAt       time.Time `json:"due_at"`

	PayerConfirmed    bool       `json:"payer_confirmed"`
	ReceiverConfirmed bool       `json:"receiver_confirmed"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`

	// TrustEvaluated flips exactly once, inside the same atomic step
	// that first observes both confirmations, and never resets.
	TrustEvaluated bool      `json:"trust_evaluated"`
	CreatedAt      time.Time `json:"created_at"`
}

// Status derives the confirmation state from the two flags.
func (s *Settlement) Status() Status {
	switch {
	case s.PayerConfirmed && s.ReceiverConfirmed:
		return StatusSettled
	case s.PayerConfirmed || s.ReceiverConfirmed:
		return StatusPartiallyConfirmed
	default:
		return StatusPending
	}
}

// IsSettled reports whether the settlement reached its terminal state.
func (s *Settlement) IsSettled() bool {
	return s.SettledAt != nil
}

// OnTime reports whether the settlement completed within its due date.
func (s *Settlement) OnTime() bool {
	return s.SettledAt != nil && !s.SettledAt.After(s.DueAt)
}
