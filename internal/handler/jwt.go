package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/auth"
)

// JWTHandler issues access tokens.
//
// POST /jwt is called by the client right after it authenticates the user
// with its identity provider. The endpoint exchanges the asserted email for
// a signed token; it does NOT embed a role — authorization is re-derived
// from the user table on every protected request.
type JWTHandler struct {
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewJWTHandler(tokens *auth.TokenService, logger *slog.Logger) *JWTHandler {
	return &JWTHandler{tokens: tokens, logger: logger}
}

// HandleIssue responds to POST /jwt {email} with {token}.
func (h *JWTHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	email := strings.TrimSpace(strings.ToLower(body.Email))
	if email == "" {
		writeError(w, apperror.ValidationFailed("email", "email is required"))
		return
	}

	token, err := h.tokens.Generate(email)
	if err != nil {
		h.logger.Error("failed to sign token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
