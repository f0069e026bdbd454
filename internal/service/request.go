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

// RequestService owns the request ledger — both the pickup-request state
// machine and charity role applications.
//
// PICKUP STATE MACHINE:
//
//	Pending → Accepted → Picked Up
//	Pending → Rejected
//
// Rejected and Picked Up are terminal. Accepting one request rejects every
// non-terminal sibling on the same donation (the repository does both in one
// transaction). Pending is the only cancellable state.
type RequestService struct {
	repo      repository.RequestRepository
	donations repository.DonationRepository
	logger    *slog.Logger
}

func NewRequestService(repo repository.RequestRepository, donations repository.DonationRepository, logger *slog.Logger) *RequestService {
	return &RequestService{repo: repo, donations: donations, logger: logger}
}

// CreatePickup files a charity's claim on a donation. Multiple charities may
// hold Pending requests for the same donation at once; the winner is decided
// at accept time.
func (s *RequestService) CreatePickup(ctx context.Context, req *model.Request, actorEmail string) (*model.Request, error) {
	req.Purpose = model.PurposePickup
	req.Email = actorEmail

	if strings.TrimSpace(req.DonationID) == "" {
		return nil, apperror.ValidationFailed("donationId", "donationId is required")
	}

	// The claim must point at a real donation; a dangling donation id would
	// poison every later join.
	if _, err := s.donations.GetByID(ctx, req.DonationID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create pickup request",
			slog.String("donationId", req.DonationID),
			slog.String("charity", actorEmail),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating pickup request: %w", err)
	}

	s.logger.Info("pickup request created",
		slog.String("id", req.ID),
		slog.String("donationId", req.DonationID),
		slog.String("charity", actorEmail),
	)

	return req, nil
}

// Accept promotes one Pending request to Accepted and broadcast-rejects its
// pending siblings. Only the restaurant that owns the donation may accept.
func (s *RequestService) Accept(ctx context.Context, id, actorEmail string) (*model.Request, error) {
	req, err := s.pickupOwnedByRestaurant(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Accept(ctx, req.ID); err != nil {
		return nil, err
	}

	s.logger.Info("pickup request accepted",
		slog.String("id", req.ID),
		slog.String("donationId", req.DonationID),
	)

	return s.repo.GetByID(ctx, req.ID)
}

// Reject turns down a single Pending request; siblings are untouched.
func (s *RequestService) Reject(ctx context.Context, id, actorEmail string) (*model.Request, error) {
	req, err := s.pickupOwnedByRestaurant(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}

	if req.Status != model.RequestPending {
		return nil, apperror.InvalidTransition("only Pending requests can be rejected")
	}

	if err := s.repo.SetStatus(ctx, req.ID, model.RequestRejected); err != nil {
		return nil, err
	}

	s.logger.Info("pickup request rejected", slog.String("id", req.ID))

	return s.repo.GetByID(ctx, req.ID)
}

// Cancel removes the requester's own Pending request from the ledger.
func (s *RequestService) Cancel(ctx context.Context, id, actorEmail string) error {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Purpose != model.PurposePickup {
		return apperror.NotFound("request", id)
	}
	if req.Email != actorEmail {
		return apperror.Forbidden("forbidden access")
	}
	if req.Status != model.RequestPending {
		return apperror.InvalidTransition("Only Pending requests can be cancelled")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("pickup request cancelled", slog.String("id", id))
	return nil
}

// ConfirmPickup is the charity's final step: an Accepted request becomes
// Picked Up with the pickup date stamped. Pending and terminal requests are
// refused.
func (s *RequestService) ConfirmPickup(ctx context.Context, id, actorEmail string) (*model.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Purpose != model.PurposePickup {
		return nil, apperror.NotFound("request", id)
	}
	if req.Email != actorEmail {
		return nil, apperror.Forbidden("forbidden access")
	}

	updated, err := s.repo.ConfirmPickup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("pickup confirmed",
		slog.String("id", id),
		slog.String("donationId", updated.DonationID),
	)

	return updated, nil
}

// UpdateStatus is the generic patch kept for compatibility with the old
// client (PATCH /requests/{id}).
//
// Deprecated: use Accept, Reject, Cancel or ConfirmPickup. This path
// re-validates against the same transition table, so it cannot perform a
// move the named operations would refuse.
func (s *RequestService) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, actorEmail string) (*model.Request, error) {
	switch status {
	case model.RequestAccepted:
		return s.Accept(ctx, id, actorEmail)
	case model.RequestRejected:
		return s.Reject(ctx, id, actorEmail)
	case model.RequestPickedUp:
		return s.ConfirmPickup(ctx, id, actorEmail)
	default:
		return nil, apperror.InvalidTransition(fmt.Sprintf("cannot set a request to %q", status))
	}
}

// ListByDonation returns a donation's pickup requests to its owning
// restaurant.
func (s *RequestService) ListByDonation(ctx context.Context, donationID, actorEmail string) ([]model.Request, error) {
	donation, err := s.donations.GetByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation.RestaurantEmail != actorEmail {
		return nil, apperror.Forbidden("forbidden access")
	}
	return s.repo.ListByDonation(ctx, donationID)
}

func (s *RequestService) ListByCharity(ctx context.Context, email string) ([]model.Request, error) {
	return s.repo.ListPickupsByCharity(ctx, email)
}

// CreateCharityRequest files an application to upgrade the acting account to
// the charity role. The one-live-application-per-email rule is enforced by
// the store's unique index; a duplicate surfaces as a Conflict no matter how
// many creates race.
func (s *RequestService) CreateCharityRequest(ctx context.Context, req *model.Request, actorEmail string) (*model.Request, error) {
	req.Purpose = model.PurposeCharityRole
	req.Email = actorEmail

	if strings.TrimSpace(req.OrganizationName) == "" {
		return nil, apperror.ValidationFailed("organizationName", "organizationName is required")
	}
	if strings.TrimSpace(req.MissionStatement) == "" {
		return nil, apperror.ValidationFailed("missionStatement", "missionStatement is required")
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("charity role request created",
		slog.String("id", req.ID),
		slog.String("email", actorEmail),
	)

	return req, nil
}

// CheckCharityRequest reports the email's live (Pending or Approved)
// application, or nil when none exists — the client uses this to decide
// whether to offer the application form.
func (s *RequestService) CheckCharityRequest(ctx context.Context, email string) (*model.Request, error) {
	return s.repo.LiveCharityRequest(ctx, email)
}

// ApproveCharityRequest flips the application to Approved and the account to
// the charity role atomically — one admin action, no manual follow-up step.
func (s *RequestService) ApproveCharityRequest(ctx context.Context, id string) (*model.Request, error) {
	req, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("charity role request approved",
		slog.String("id", req.ID),
		slog.String("email", req.Email),
	)

	return req, nil
}

// RejectCharityRequest turns down a Pending application. The email is freed
// for a fresh application because the unique index only covers live states.
func (s *RequestService) RejectCharityRequest(ctx context.Context, id string) (*model.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Purpose != model.PurposeCharityRole {
		return nil, apperror.NotFound("charity role request", id)
	}
	if req.Status != model.RequestPending {
		return nil, apperror.InvalidTransition("only Pending applications can be rejected")
	}

	if err := s.repo.SetStatus(ctx, id, model.RequestRejected); err != nil {
		return nil, err
	}

	s.logger.Info("charity role request rejected", slog.String("id", id))

	return s.repo.GetByID(ctx, id)
}

// pickupOwnedByRestaurant loads a pickup request and checks that the actor
// owns the donation it targets.
func (s *RequestService) pickupOwnedByRestaurant(ctx context.Context, id, actorEmail string) (*model.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Purpose != model.PurposePickup {
		return nil, apperror.NotFound("request", id)
	}

	donation, err := s.donations.GetByID(ctx, req.DonationID)
	if err != nil {
		return nil, err
	}
	if donation.RestaurantEmail != actorEmail {
		return nil, apperror.Forbidden("forbidden access")
	}

	return req, nil
}
