package trip

// CreateTripRequest represents the request to create a new trip
type CreateTripRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// AddParticipantRequest represents the request to add a participant to a trip
type AddParticipantRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// RoleRequest represents the request to grant or revoke a delegated role
type RoleRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
	Role   Role  `json:"role" validate:"required,oneof=accountant captain"`
}

// TripResponse represents the response for a trip
type TripResponse struct {
	ID                   int64                  `json:"id"`
	Name                 string                 `json:"name"`
	CreatedBy            int64                  `json:"created_by"`
	Status               Status                 `json:"status"`
	SettlementsGenerated bool                   `json:"settlements_generated"`
	CreatedAt            string                 `json:"created_at"`
	CompletedAt          *string                `json:"completed_at,omitempty"`
	Participants         []*ParticipantResponse `json:"participants,omitempty"`
}

// ParticipantResponse represents a participant in a trip response
type ParticipantResponse struct {
	UserID   int64  `json:"user_id"`
	JoinedAt string `json:"joined_at"`
	Roles    []Role `json:"roles,omitempty"`
}

// ToResponse converts a Trip model to a TripResponse DTO
func (t *Trip) ToResponse() *TripResponse {
	resp := &TripResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		CreatedBy:            t.CreatedBy,
		Status:               t.Status,
		SettlementsGenerated: t.SettlementsGenerated,
		CreatedAt:            t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format("2006-01-02T15:04:05Z")
		resp.CompletedAt = &s
	}
	return resp
}
