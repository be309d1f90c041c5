package trip

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/triply/tripledger/pkg/middleware"
	"github.com/triply/tripledger/pkg/response"
)

// Handler handles HTTP requests for trip operations
type Handler struct {
	service *Service
}

// NewHandler creates a new trip handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for trip endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{tripId}", h.GetByID)
	r.Post("/{tripId}/complete", h.Complete)

	// Roster and role management
	r.Post("/{tripId}/participants", h.AddParticipant)
	r.Post("/{tripId}/roles", h.GrantRole)
	r.Delete("/{tripId}/roles", h.RevokeRole)

	return r
}

// Create handles POST /trips
// @Summary      Create a new trip
// @Description  Create a trip with its wallet; creator becomes wallet manager
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        request body CreateTripRequest true "Trip creation request"
// @Success      201 {object} response.APIResponse{data=TripResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /trips [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "Trip name is required")
		return
	}

	trip, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create trip")
		return
	}

	response.JSON(w, http.StatusCreated, trip.ToResponse())
}

// GetByID handles GET /trips/{tripId}
// @Summary      Get trip by ID
// @Description  Get a trip with its roster and delegated roles
// @Tags         trips
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=TripResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /trips/{tripId} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	trip, participants, roles, err := h.service.GetByIDWithRoster(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get trip")
		return
	}

	resp := trip.ToResponse()
	resp.Participants = make([]*ParticipantResponse, len(participants))
	for i, p := range participants {
		resp.Participants[i] = &ParticipantResponse{
			UserID:   p.UserID,
			JoinedAt: p.JoinedAt.Format("2006-01-02T15:04:05Z"),
			Roles:    roles[p.UserID],
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Complete handles POST /trips/{tripId}/complete
// @Summary      Mark a trip completed
// @Description  Close the trip to expense writes; settlements can then be generated
// @Tags         trips
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=TripResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /trips/{tripId}/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	trip, err := h.service.Complete(r.Context(), tripID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrAlreadyCompleted):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to complete trip")
		}
		return
	}

	response.JSON(w, http.StatusOK, trip.ToResponse())
}

// AddParticipant handles POST /trips/{tripId}/participants
// @Summary      Add a participant
// @Description  Add a user to the trip roster (creator or captain only)
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body AddParticipantRequest true "Participant request"
// @Success      201 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/participants [post]
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.AddParticipant(r.Context(), tripID, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrAlreadyCompleted), errors.Is(err, ErrAlreadyParticipant):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to add participant")
		}
		return
	}

	response.JSON(w, http.StatusCreated, &ParticipantResponse{
		UserID:   p.UserID,
		JoinedAt: p.JoinedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// GrantRole handles POST /trips/{tripId}/roles
// @Summary      Grant a delegated role
// @Description  Grant the accountant or captain role to a participant (creator only)
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body RoleRequest true "Role request"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/roles [post]
func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.GrantRole, "Role granted")
}

// RevokeRole handles DELETE /trips/{tripId}/roles
// @Summary      Revoke a delegated role
// @Description  Revoke the accountant or captain role from a participant (creator only)
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body RoleRequest true "Role request"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /trips/{tripId}/roles [delete]
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.RevokeRole, "Role revoked")
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tripID, actorID int64, req *RoleRequest) error, message string) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := apply(r.Context(), tripID, actorID, &req); err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrUnknownRole), errors.Is(err, ErrNotParticipant):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to change role")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": message})
}
