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

// FeaturedLimit is the page size of the featured-donations endpoint.
const FeaturedLimit = 6

// DonationService owns the donation lifecycle:
// Pending → Verified | Rejected (admin decision), Rejected terminal.
type DonationService struct {
	repo   repository.DonationRepository
	logger *slog.Logger
}

func NewDonationService(repo repository.DonationRepository, logger *slog.Logger) *DonationService {
	return &DonationService{repo: repo, logger: logger}
}

// Create validates and posts a new donation for the acting restaurant.
// The restaurant email comes from the verified token identity, never from
// the request body — a restaurant posts as itself or not at all.
func (s *DonationService) Create(ctx context.Context, donation *model.Donation, actorEmail string) (*model.Donation, error) {
	donation.RestaurantEmail = actorEmail

	required := []struct {
		field, value string
	}{
		{"title", donation.Title},
		{"foodType", donation.FoodType},
		{"quantity", donation.Quantity},
		{"pickupTime", donation.PickupTime},
		{"restaurantName", donation.RestaurantName},
		{"restaurantEmail", donation.RestaurantEmail},
		{"location", donation.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, apperror.ValidationFailed(f.field, f.field+" is required")
		}
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		s.logger.Error("failed to create donation",
			slog.String("restaurant", actorEmail),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating donation: %w", err)
	}

	s.logger.Info("donation created",
		slog.String("id", donation.ID),
		slog.String("restaurant", donation.RestaurantEmail),
	)

	return donation, nil
}

// Update merges the non-empty patch fields into the stored donation.
// A Rejected donation is immutable, and only the owning restaurant may edit.
func (s *DonationService) Update(ctx context.Context, id string, patch *model.Donation, actorEmail string) (*model.Donation, error) {
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if donation.RestaurantEmail != actorEmail {
		return nil, apperror.Forbidden("forbidden access")
	}
	if donation.Status == model.DonationRejected {
		return nil, apperror.InvalidTransition("a Rejected donation cannot be updated")
	}

	if v := strings.TrimSpace(patch.Title); v != "" {
		donation.Title = v
	}
	if v := strings.TrimSpace(patch.FoodType); v != "" {
		donation.FoodType = v
	}
	if v := strings.TrimSpace(patch.Quantity); v != "" {
		donation.Quantity = v
	}
	if v := strings.TrimSpace(patch.PickupTime); v != "" {
		donation.PickupTime = v
	}
	if v := strings.TrimSpace(patch.Location); v != "" {
		donation.Location = v
	}
	if v := strings.TrimSpace(patch.Image); v != "" {
		donation.Image = v
	}

	if err := s.repo.Update(ctx, donation); err != nil {
		s.logger.Error("failed to update donation",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return donation, nil
}

// Verify marks a donation as admin-approved. Idempotent by overwrite:
// verifying twice leaves it Verified with no error.
func (s *DonationService) Verify(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.DonationVerified)
}

// Reject marks a donation as refused; from here on it accepts no edits.
func (s *DonationService) Reject(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.DonationRejected)
}

func (s *DonationService) setStatus(ctx context.Context, id string, status model.DonationStatus) error {
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("donation status set",
		slog.String("id", id),
		slog.String("status", string(status)),
	)
	return nil
}

// ListFeatured returns up to FeaturedLimit donations. Order is an explicit
// non-guarantee of the API.
func (s *DonationService) ListFeatured(ctx context.Context) ([]model.Donation, error) {
	return s.repo.ListFeatured(ctx, FeaturedLimit)
}

func (s *DonationService) Get(ctx context.Context, id string) (*model.Donation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "donation ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *DonationService) ListByRestaurant(ctx context.Context, email string) ([]model.Donation, error) {
	return s.repo.ListByRestaurant(ctx, email)
}

func (s *DonationService) ListAll(ctx context.Context) ([]model.Donation, error) {
	return s.repo.ListAll(ctx)
}
