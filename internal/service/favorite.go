package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

// FavoriteService owns a user's saved donations.
type FavoriteService struct {
	repo      repository.FavoriteRepository
	donations repository.DonationRepository
	logger    *slog.Logger
}

func NewFavoriteService(repo repository.FavoriteRepository, donations repository.DonationRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, donations: donations, logger: logger}
}

// Create saves a donation to the actor's favorites. A duplicate pair is a
// Conflict — decided by the store's unique index, so two racing creates
// can't both land.
func (s *FavoriteService) Create(ctx context.Context, donationID, actorEmail string) (*model.Favorite, error) {
	donationID = strings.TrimSpace(donationID)
	if donationID == "" {
		return nil, apperror.ValidationFailed("donationId", "email and donationId are required")
	}

	if _, err := s.donations.GetByID(ctx, donationID); err != nil {
		return nil, err
	}

	favorite := &model.Favorite{
		UserEmail:  actorEmail,
		DonationID: donationID,
	}
	if err := s.repo.Create(ctx, favorite); err != nil {
		return nil, err
	}

	s.logger.Info("favorite created",
		slog.String("user", actorEmail),
		slog.String("donationId", donationID),
	)

	return favorite, nil
}

// ListByUser returns the user's favorites joined with their donations.
func (s *FavoriteService) ListByUser(ctx context.Context, email string) ([]model.FavoriteView, error) {
	return s.repo.ListByUser(ctx, email)
}
