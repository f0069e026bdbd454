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

// RequestHandler exposes the request ledger: pickup requests and charity
// role applications.
type RequestHandler struct {
	requests *service.RequestService
	logger   *slog.Logger
}

func NewRequestHandler(requests *service.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, logger: logger}
}

// HandleCreatePickup responds to POST /requests (charity-only).
func (h *RequestHandler) HandleCreatePickup(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, err := h.requests.CreatePickup(r.Context(), &req, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleAccept responds to PATCH /requests/accept/{id} (restaurant-only).
// Accepting one request rejects every other pending request on the same
// donation in the same stroke.
func (h *RequestHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Accept)
}

// HandleReject responds to PATCH /requests/reject/{id} (restaurant-only).
func (h *RequestHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.Reject)
}

// HandleConfirmPickup responds to PATCH /requests/pickup/{id} (charity-only).
func (h *RequestHandler) HandleConfirmPickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.requests.ConfirmPickup)
}

type transitionFunc func(ctx context.Context, id, actorEmail string) (*model.Request, error)

func (h *RequestHandler) transition(w http.ResponseWriter, r *http.Request, op transitionFunc) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	updated, err := op(r.Context(), chi.URLParam(r, "id"), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleUpdateStatus responds to PATCH /requests/{id} {status} — the old
// generic patch, kept for client compatibility but funneled through the same
// validated transitions as the named endpoints.
func (h *RequestHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var body struct {
		Status model.RequestStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	updated, err := h.requests.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleCancel responds to DELETE /requests/{id} (requester-only; Pending
// requests only).
func (h *RequestHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	if err := h.requests.Cancel(r.Context(), chi.URLParam(r, "id"), email); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListByDonation responds to GET /requests/by-donation/{donationId}
// (owning restaurant only — enforced in the service, which knows the owner).
func (h *RequestHandler) HandleListByDonation(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	requests, err := h.requests.ListByDonation(r.Context(), chi.URLParam(r, "donationId"), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// HandleListByCharity responds to GET /requests/charity/{email}
// (self-scoped by middleware).
func (h *RequestHandler) HandleListByCharity(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.ListByCharity(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// HandleCreateCharityRequest responds to POST /charity-request.
func (h *RequestHandler) HandleCreateCharityRequest(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var req model.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, err := h.requests.CreateCharityRequest(r.Context(), &req, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// HandleCheckCharityRequest responds to GET /charity-request/check?email=.
// The query email must match the token identity; {"exists": false} when the
// account has no live application.
func (h *RequestHandler) HandleCheckCharityRequest(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	if q := r.URL.Query().Get("email"); q != "" && q != email {
		writeError(w, apperror.Forbidden("forbidden access"))
		return
	}

	req, err := h.requests.CheckCharityRequest(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	if req == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exists": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "request": req})
}

// HandleApproveCharityRequest responds to
// PATCH /charity-request/approve/{id} (admin-only). Flips the application
// AND the account role in one atomic step.
func (h *RequestHandler) HandleApproveCharityRequest(w http.ResponseWriter, r *http.Request) {
	approved, err := h.requests.ApproveCharityRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

// HandleRejectCharityRequest responds to PATCH /charity-request/reject/{id}
// (admin-only).
func (h *RequestHandler) HandleRejectCharityRequest(w http.ResponseWriter, r *http.Request) {
	rejected, err := h.requests.RejectCharityRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}
