package trip

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrTripNotFound       = errors.New("trip not found")
	ErrNotAuthorized      = errors.New("not authorized to perform this action")
	ErrAlreadyCompleted   = errors.New("trip is already completed")
	ErrUnknownRole        = errors.New("unknown role")
	ErrNotParticipant     = errors.New("user is not a trip participant")
	ErrAlreadyParticipant = errors.New("user is already a trip participant")
)

// Service handles trip business logic
type Service struct {
	repo *Repository
}

// NewService creates a new trip service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new trip together with its wallet; the creator becomes
// the first participant and the wallet manager.
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateTripRequest) (*Trip, error) {
	return s.repo.Create(ctx, creatorID, req)
}

// GetByID retrieves a trip by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

// GetByIDWithRoster retrieves a trip with its participants and their roles
func (s *Service) GetByIDWithRoster(ctx context.Context, id int64) (*Trip, []*Participant, map[int64][]Role, error) {
	trip, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	roles, err := s.repo.GetActiveRoles(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	return trip, participants, roles, nil
}

// AddParticipant adds a user to the roster. Only the creator or a captain
// may extend the roster, and only while the trip is still planning.
func (s *Service) AddParticipant(ctx context.Context, tripID, actorID int64, req *AddParticipantRequest) (*Participant, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}

	if err := s.requireCreatorOrCaptain(ctx, trip, actorID); err != nil {
		return nil, err
	}

	p, err := s.repo.AddParticipant(ctx, tripID, req.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrAlreadyParticipant
	}

	return p, nil
}

// GrantRole activates a delegated role. Creator only.
func (s *Service) GrantRole(ctx context.Context, tripID, actorID int64, req *RoleRequest) error {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.CreatedBy != actorID {
		return ErrNotAuthorized
	}
	if !ValidRole(req.Role) {
		return ErrUnknownRole
	}

	isParticipant, err := s.repo.IsParticipant(ctx, tripID, req.UserID)
	if err != nil {
		return err
	}
	if !isParticipant {
		return ErrNotParticipant
	}

	return s.repo.GrantRole(ctx, tripID, req.UserID, req.Role)
}

// RevokeRole deactivates a delegated role. Creator only.
func (s *Service) RevokeRole(ctx context.Context, tripID, actorID int64, req *RoleRequest) error {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.CreatedBy != actorID {
		return ErrNotAuthorized
	}
	if !ValidRole(req.Role) {
		return ErrUnknownRole
	}

	return s.repo.RevokeRole(ctx, tripID, req.UserID, req.Role)
}

// Complete closes the trip to further expense writes. Creator only.
func (s *Service) Complete(ctx context.Context, tripID, actorID int64) (*Trip, error) {
	trip, err := s.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.CreatedBy != actorID {
		return nil, ErrNotAuthorized
	}
	if trip.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}

	updated, err := s.repo.MarkCompleted(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost a race with a concurrent completion call.
		return nil, ErrAlreadyCompleted
	}

	return updated, nil
}

// Roles exposes the repository's role checker for the authorization policy.
func (s *Service) Roles() RoleChecker {
	return s.repo
}

func (s *Service) requireCreatorOrCaptain(ctx context.Context, trip *Trip, actorID int64) error {
	if trip.CreatedBy == actorID {
		return nil
	}
	isCaptain, err := s.repo.HasActiveRole(ctx, trip.ID, actorID, RoleCaptain)
	if err != nil {
		return err
	}
	if !isCaptain {
		return ErrNotAuthorized
	}
	return nil
}
