package wallet

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/triply/tripledger/internal/money"
	"github.com/triply/tripledger/internal/trip"
	"github.com/triply/tripledger/pkg/middleware"
	"github.com/triply/tripledger/pkg/response"
)

// Handler handles HTTP requests for wallet operations
type Handler struct {
	service *Service
}

// NewHandler creates a new wallet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for wallet endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Trip-based access; a wallet is addressed through its trip.
	r.Get("/trip/{tripId}", h.GetByTrip)
	r.Patch("/trip/{tripId}", h.UpdateSettings)

	// Maintenance
	r.Post("/{walletId}/reconcile", h.Reconcile)

	return r
}

// GetByTrip handles GET /wallets/trip/{tripId}
// @Summary      Get a trip's wallet
// @Description  Get the wallet with budget, total spend, and permission mode
// @Tags         wallets
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Success      200 {object} response.APIResponse{data=WalletResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /wallets/trip/{tripId} [get]
func (h *Handler) GetByTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid trip ID")
		return
	}

	wallet, err := h.service.GetByTrip(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get wallet")
		return
	}

	response.JSON(w, http.StatusOK, wallet.ToResponse())
}

// UpdateSettings handles PATCH /wallets/trip/{tripId}
// @Summary      Update wallet settings
// @Description  Change expense permission or budget (creator or captain only)
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        tripId path int true "Trip ID"
// @Param        request body UpdateSettingsRequest true "Settings update"
// @Success      200 {object} response.APIResponse{data=WalletResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /wallets/trip/{tripId} [patch]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	wallet, err := h.service.UpdateSettings(r.Context(), tripID, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, trip.ErrTripNotFound), errors.Is(err, ErrWalletNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrUnknownPermission), errors.Is(err, ErrNegativeBudget),
			errors.Is(err, money.ErrTooManyDecimals):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update wallet settings")
		}
		return
	}

	response.JSON(w, http.StatusOK, wallet.ToResponse())
}

// Reconcile handles POST /wallets/{walletId}/reconcile
// @Summary      Reconcile wallet total spend
// @Description  Recompute totalSpend from expenses and replace the cached value
// @Tags         wallets
// @Produce      json
// @Param        walletId path int true "Wallet ID"
// @Success      200 {object} response.APIResponse{data=ReconcileResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /wallets/{walletId}/reconcile [post]
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	walletID, err := strconv.ParseInt(chi.URLParam(r, "walletId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid wallet ID")
		return
	}

	previous, recomputed, err := h.service.Reconcile(r.Context(), walletID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to reconcile wallet")
		return
	}

	response.JSON(w, http.StatusOK, &ReconcileResponse{
		WalletID:   walletID,
		Previous:   money.FromCents(previous).StringFixed(2),
		Recomputed: money.FromCents(recomputed).StringFixed(2),
		Drifted:    previous != recomputed,
	})
}
