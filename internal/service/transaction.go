package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

// TransactionService owns the append-only payment confirmation log.
type TransactionService struct {
	repo   repository.TransactionRepository
	logger *slog.Logger
}

func NewTransactionService(repo repository.TransactionRepository, logger *slog.Logger) *TransactionService {
	return &TransactionService{repo: repo, logger: logger}
}

// Record appends a client-reported payment confirmation. The external
// transaction id is required but NOT deduplicated — the log records what the
// client reported, and consumers join through the id at read time.
func (s *TransactionService) Record(ctx context.Context, txn *model.Transaction, actorEmail string) (*model.Transaction, error) {
	txn.Email = actorEmail

	if strings.TrimSpace(txn.Email) == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if strings.TrimSpace(txn.TransactionID) == "" {
		return nil, apperror.ValidationFailed("transactionId", "transactionId is required")
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		s.logger.Error("failed to record transaction",
			slog.String("email", txn.Email),
			slog.String("transactionId", txn.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	s.logger.Info("transaction recorded",
		slog.String("id", txn.ID),
		slog.String("transactionId", txn.TransactionID),
	)

	return txn, nil
}

// ListForUser returns the user's transactions, each carrying the current
// status of the charity role request that references it, if any.
func (s *TransactionService) ListForUser(ctx context.Context, email string) ([]model.TransactionView, error) {
	return s.repo.ListByEmail(ctx, email)
}

// ListAll is the admin view over the whole log.
func (s *TransactionService) ListAll(ctx context.Context) ([]model.TransactionView, error) {
	return s.repo.ListAll(ctx)
}
