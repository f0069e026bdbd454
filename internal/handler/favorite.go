package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/auth"
	"github.com/sakif/foodbridge/internal/service"
)

// FavoriteHandler manages saved donations.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// HandleCreate responds to POST /favorites {donationId}. The user is the
// token identity; a duplicate pair is 409.
func (h *FavoriteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var body struct {
		DonationID string `json:"donationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	favorite, err := h.favorites.Create(r.Context(), body.DonationID, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, favorite)
}

// HandleListByUser responds to GET /favorites/{email} (self-scoped by
// middleware) with each favorite joined to its donation.
func (h *FavoriteHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	views, err := h.favorites.ListByUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
