// Package events defines the engine's outbound boundary. The ledger raises
// events for the platform's real-time broadcaster and trust scorer to
// consume; it never delivers them itself.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a ledger change announced to clients.
type EventType string

const (
	EventExpenseAdded        EventType = "expense_added"
	EventExpenseUpdated      EventType = "expense_updated"
	EventExpenseDeleted      EventType = "expense_deleted"
	EventSettlementGenerated EventType = "settlement_generated"
	EventSettlementConfirmed EventType = "settlement_confirmed"
)

// Event is one ledger change, ready for fan-out.
type Event struct {
	ID      uuid.UUID              `json:"id"`
	Type    EventType              `json:"type"`
	TripID  int64                  `json:"trip_id"`
	ActorID int64                  `json:"actor_id"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	At      time.Time              `json:"at"`
}

// New builds an event with a fresh id and timestamp.
func New(eventType EventType, tripID, actorID int64, payload map[string]interface{}) Event {
	return Event{
		ID:      uuid.New(),
		Type:    eventType,
		TripID:  tripID,
		ActorID: actorID,
		Payload: payload,
		At:      time.Now().UTC(),
	}
}

// Emitter hands events to the external broadcaster.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// TrustOutcome classifies how a settlement completed for trust scoring.
type TrustOutcome string

const (
	OutcomeSettlePayment  TrustOutcome = "settle_payment"
	OutcomeLateSettlement TrustOutcome = "late_settlement"
)

// TrustAwarder forwards settlement outcomes to the external trust/points
// service. Calls are best-effort; the settlement itself never depends on
// the result.
type TrustAwarder interface {
	Award(ctx context.Context, userID int64, outcome TrustOutcome, tripID int64, settlementIdx int) error
}
