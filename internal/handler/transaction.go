package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/auth"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/payment"
	"github.com/sakif/foodbridge/internal/service"
)

// TransactionHandler exposes the payment confirmation log and the
// payment-intent endpoint.
type TransactionHandler struct {
	transactions *service.TransactionService
	payments     *payment.Client
	logger       *slog.Logger
}

func NewTransactionHandler(transactions *service.TransactionService, payments *payment.Client, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, payments: payments, logger: logger}
}

// HandleCreateIntent responds to POST /create-payment-intent {amount} with
// {clientSecret}. The amount is in the smallest currency unit.
func (h *TransactionHandler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	secret, err := h.payments.CreateIntent(r.Context(), body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

// HandleRecord responds to POST /transactions.
func (h *TransactionHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("unauthorized access"))
		return
	}

	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	recorded, err := h.transactions.Record(r.Context(), &txn, email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recorded)
}

// HandleListForUser responds to GET /transactions/{email} (self-scoped by
// middleware).
func (h *TransactionHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	views, err := h.transactions.ListForUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleListAll responds to GET /transactions (admin-only).
func (h *TransactionHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.transactions.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
