package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/auth"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/service"
)

// DonationHandler manages the donation catalog endpoints.
type DonationHandler struct {
	donations *service.DonationService
	logger    *slog.Logger
}

func NewDonationHandler(donations *service.DonationService, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, logger: logger}
}

// HandleCreate responds to POST /donations (restaurant-only).
func (h *DonationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var donation model.Donation
	if err := json.NewDecoder(r.Body).Decode(&donation); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, err := h.donations.Create(r.Context(), &donation, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate responds to PATCH /donations/{id} (owning restaurant only).
func (h *DonationHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var patch model.Donation
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	updated, err := h.donations.Update(r.Context(), chi.URLParam(r, "id"), &patch, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleVerify responds to PATCH /donations/{id}/verify (admin-only).
func (h *DonationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.donations.Verify)
}

// HandleReject responds to PATCH /donations/{id}/reject (admin-only).
func (h *DonationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.donations.Reject)
}

func (h *DonationHandler) setStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	donation, err := h.donations.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

// HandleFeatured responds to GET /featured-donations (public).
func (h *DonationHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.ListFeatured(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleGet responds to GET /donation/{id} (public).
func (h *DonationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	donation, err := h.donations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

// HandleListByRestaurant responds to GET /donations/restaurant/{email}
// (self-scoped by middleware).
func (h *DonationHandler) HandleListByRestaurant(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.ListByRestaurant(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleListAll responds to GET /donations (admin-only).
func (h *DonationHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	donations, err := h.donations.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}
