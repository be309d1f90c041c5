package trip

import "context"

// RoleChecker answers whether a participant currently holds a delegated
// role on a trip. Every authorization path shares this one implementation
// instead of querying the roles table ad hoc.
type RoleChecker interface {
	HasActiveRole(ctx context.Context, tripID, userID int64, role Role) (bool, error)
}

// ParticipantChecker answers whether a user is on the trip roster.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, tripID, userID int64) (bool, error)
}
