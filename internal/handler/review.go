package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/auth"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/service"
)

// ReviewHandler manages donation reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleCreate responds to POST /reviews.
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var review model.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, err := h.reviews.Create(r.Context(), &review, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleDelete responds to DELETE /reviews/{id} (author-only).
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	if err := h.reviews.Delete(r.Context(), chi.URLParam(r, "id"), email); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListByDonation responds to GET /reviews/{donationId} (public).
func (h *ReviewHandler) HandleListByDonation(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByDonation(r.Context(), chi.URLParam(r, "donationId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// HandleListByAuthor responds to GET /reviews-by-user/{email} (self-scoped
// by middleware).
func (h *ReviewHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByAuthor(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
