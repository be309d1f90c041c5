package events

import (
	"context"
	"log/slog"
)

// LogEmitter announces events on the service log. It stands in for the
// platform broadcaster in development and tests.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(ctx context.Context, event Event) {
	slog.InfoContext(ctx, "event emitted",
		"event_id", event.ID,
		"type", event.Type,
		"trip_id", event.TripID,
		"actor_id", event.ActorID,
	)
}

// LogTrustAwarder logs trust outcomes instead of calling the scoring service.
type LogTrustAwarder struct{}

func NewLogTrustAwarder() *LogTrustAwarder {
	return &LogTrustAwarder{}
}

func (a *LogTrustAwarder) Award(ctx context.Context, userID int64, outcome TrustOutcome, tripID int64, settlementIdx int) error {
	slog.InfoContext(ctx, "trust outcome awarded",
		"user_id", userID,
		"outcome", outcome,
		"trip_id", tripID,
		"settlement_idx", settlementIdx,
	)
	return nil
}
