// Package handler contains the HTTP layer: each handler decodes the request,
// pulls the verified identity out of the context, calls one service method,
// and writes the result with the response helpers. No business rule lives
// here and no SQL is visible from here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/service"
)

// UserHandler manages accounts and the admin role endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleUpsert responds to POST /users.
//
// 201 with the new record on first sight of the email, 200 with the stored
// record on every later call — the client calls this on every login.
func (h *UserHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	created, err := h.users.Upsert(r.Context(), &user)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, user)
}

// HandleGet responds to GET /users/{email} (self-scoped by middleware).
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleSearch responds to GET /users?search= (admin-only).
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleSetRole returns the handler for one of the admin role endpoints:
// PATCH /users/{email}/make-admin, .../remove-charity, and so on. "make"
// assigns the named role; "remove" demotes back to the plain user role.
func (h *UserHandler) HandleSetRole(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")

		if err := h.users.SetRole(r.Context(), email, role); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"email": email,
			"role":  string(role),
		})
	}
}
