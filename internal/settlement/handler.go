package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/triply/tripledger/pkg/middleware"
	"github.com/triply/tripledger/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/trip/{tripId}", h.Generate)
	r.Get("/trip/{tripId}", h.ListByTrip)
	r.Get("/trip/{tripId}/balances", h.Balances)
	r.Post("/trip/{tripId}/{idx}/confirm", h.Confirm)

	return r
}

// Generate handles POST /settlements/trip/{tripId}
// @Summary      Generate the trip's settlement batch
// @Description  Net all balances into directed transfers (trip creator only; idempotent)
// @Tags         settlements
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]Response}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/trip/{tripId} [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
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

	batch, err := h.service.Generate(r.Context(), tripID, actorID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to generate settlements")
		return
	}

	response.JSON(w, http.StatusOK, ToResponseList(batch))
}

// ListByTrip handles GET /settlements/trip/{tripId}
// @Summary      List the trip's settlements
// @Description  Get the generated settlement batch in index order
// @Tags         settlements
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]Response}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/trip/{tripId} [get]
func (h *Handler) ListByTrip(w http.ResponseWriter, r *http.Request) {
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

	batch, err := h.service.ListByTrip(r.Context(), tripID, actorID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list settlements")
		return
	}

	response.JSON(w, http.StatusOK, ToResponseList(batch))
}

// Balances handles GET /settlements/trip/{tripId}/balances
// @Summary      Get the trip's net balances
// @Description  Recompute each participant's net position from the expense set
// @Tags         settlements
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]BalanceResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/trip/{tripId}/balances [get]
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
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

	balances, err := h.service.Balances(r.Context(), tripID, actorID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to compute balances")
		return
	}

	response.JSON(w, http.StatusOK, ToBalanceResponseList(balances))
}

// Confirm handles POST /settlements/trip/{tripId}/{idx}/confirm
// @Summary      Confirm a settlement
// @Description  Record the payer's or receiver's acknowledgement; settles when both have confirmed
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        idx path int true "Settlement index"
// @Param        request body ConfirmRequest true "Confirmation role"
// @Success      200 {object} response.APIResponse{data=Response}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/trip/{tripId}/{idx}/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil || idx < 0 {
		response.BadRequest(w, "Invalid settlement index")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	settlement, err := h.service.Confirm(r.Context(), tripID, idx, actorID, &req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to confirm settlement")
		return
	}

	response.JSON(w, http.StatusOK, ToResponse(settlement))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTripNotFound), errors.Is(err, ErrSettlementNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotParticipant), errors.Is(err, ErrRoleMismatch):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrUnknownRole):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrTripNotCompleted):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
