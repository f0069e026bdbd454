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

// ReviewService owns donation reviews. Append-only: a review is created or
// deleted by its author, never edited.
type ReviewService struct {
	repo   repository.ReviewRepository
	logger *slog.Logger
}

func NewReviewService(repo repository.ReviewRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{repo: repo, logger: logger}
}

// Create stamps the author from the token identity and records the review.
// The creation time is set server-side; a rating outside 1..5 is refused.
func (s *ReviewService) Create(ctx context.Context, review *model.Review, actorEmail string) (*model.Review, error) {
	review.CharityEmail = actorEmail

	if strings.TrimSpace(review.DonationID) == "" {
		return nil, apperror.ValidationFailed("donationId", "donationId is required")
	}
	if review.Rating < 1 || review.Rating > 5 {
		return nil, apperror.ValidationFailed("rating", "rating must be between 1 and 5")
	}

	if err := s.repo.Create(ctx, review); err != nil {
		s.logger.Error("failed to create review",
			slog.String("donationId", review.DonationID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating review: %w", err)
	}

	s.logger.Info("review created",
		slog.String("id", review.ID),
		slog.String("donationId", review.DonationID),
	)

	return review, nil
}

// Delete removes a review; only its author may do so.
func (s *ReviewService) Delete(ctx context.Context, id, actorEmail string) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.CharityEmail != actorEmail {
		return apperror.Forbidden("forbidden access")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("review deleted", slog.String("id", id))
	return nil
}

func (s *ReviewService) ListByDonation(ctx context.Context, donationID string) ([]model.Review, error) {
	return s.repo.ListByDonation(ctx, donationID)
}

func (s *ReviewService) ListByAuthor(ctx context.Context, email string) ([]model.Review, error) {
	return s.repo.ListByAuthor(ctx, email)
}
