// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/foodbridge/internal/model"
)

type UserRepository interface {
	// Upsert creates the user on first sight of the email and returns
	// created=true; on later calls it refreshes last_log_in and returns the
	// stored record with created=false. The stored role is never changed by
	// an upsert.
	Upsert(ctx context.Context, user *model.User) (created bool, err error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Search matches the term case-insensitively against name and email.
	// An empty term lists everyone.
	Search(ctx context.Context, term string) ([]model.User, error)
	SetRole(ctx context.Context, email string, role model.Role) error
}

type DonationRepository interface {
	Create(ctx context.Context, donation *model.Donation) error
	GetByID(ctx context.Context, id string) (*model.Donation, error)
	Update(ctx context.Context, donation *model.Donation) error
	SetStatus(ctx context.Context, id string, status model.DonationStatus) error
	ListFeatured(ctx context.Context, limit int) ([]model.Donation, error)
	ListByRestaurant(ctx context.Context, email string) ([]model.Donation, error)
	ListAll(ctx context.Context) ([]model.Donation, error)
}

type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	GetByID(ctx context.Context, id string) (*model.Request, error)
	// Accept flips the target request to Accepted and every non-terminal
	// sibling on the same donation to Rejected, in one transaction. It fails
	// if the target is not Pending or another sibling is already Accepted,
	// so at most one Accepted request exists per donation at any time.
	Accept(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status model.RequestStatus) error
	ConfirmPickup(ctx context.Context, id string) (*model.Request, error)
	Delete(ctx context.Context, id string) error
	ListByDonation(ctx context.Context, donationID string) ([]model.Request, error)
	ListPickupsByCharity(ctx context.Context, email string) ([]model.Request, error)
	// LiveCharityRequest returns the email's charity role request with
	// status Pending or Approved, or nil when there is none.
	LiveCharityRequest(ctx context.Context, email string) (*model.Request, error)
	// Approve sets a charity role request to Approved and the applicant's
	// role to charity in one transaction.
	Approve(ctx context.Context, id string) (*model.Request, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	Delete(ctx context.Context, id string) error
	ListByDonation(ctx context.Context, donationID string) ([]model.Review, error)
	ListByAuthor(ctx context.Context, email string) ([]model.Review, error)
}

type FavoriteRepository interface {
	// Create fails with apperror.ErrConflict when the (user, donation) pair
	// already exists — the unique index decides, not a prior read.
	Create(ctx context.Context, favorite *model.Favorite) error
	// ListByUser joins each favorite with its donation; favorites whose
	// donation no longer exists are omitted.
	ListByUser(ctx context.Context, email string) ([]model.FavoriteView, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	// ListByEmail and ListAll enrich each row with the status of the charity
	// role request sharing its external transaction id, when one exists.
	ListByEmail(ctx context.Context, email string) ([]model.TransactionView, error)
	ListAll(ctx context.Context) ([]model.TransactionView, error)
}
