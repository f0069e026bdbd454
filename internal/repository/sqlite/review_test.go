package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
)

func createTestReview(t *testing.T, db *DB, donationID, email string) *model.Review {
	t.Helper()
	review := &model.Review{
		DonationID:   donationID,
		CharityEmail: email,
		Rating:       4,
		Comment:      "Great quality, easy pickup",
	}
	if err := db.Reviews.Create(context.Background(), review); err != nil {
		t.Fatalf("failed to create test review: %v", err)
	}
	return review
}

func TestReviewCreate(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")

	review := createTestReview(t, db, donation.ID, "a@charity.org")

	if review.ID == "" {
		t.Error("Create() did not set review.ID")
	}
	if review.CreatedAt.IsZero() {
		t.Error("Create() did not set review.CreatedAt")
	}
}

func TestReviewDelete(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")
	review := createTestReview(t, db, donation.ID, "a@charity.org")

	if err := db.Reviews.Delete(context.Background(), review.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Reviews.GetByID(context.Background(), review.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestReviewDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Reviews.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestReviewListByDonation(t *testing.T) {
	db := newTestDB(t)
	d1 := createTestDonation(t, db, "rest@food.com")
	d2 := createTestDonation(t, db, "rest@food.com")
	createTestReview(t, db, d1.ID, "a@charity.org")
	createTestReview(t, db, d1.ID, "b@charity.org")
	createTestReview(t, db, d2.ID, "a@charity.org")

	reviews, err := db.Reviews.ListByDonation(context.Background(), d1.ID)
	if err != nil {
		t.Fatalf("ListByDonation() error = %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
}

func TestReviewListByAuthor(t *testing.T) {
	db := newTestDB(t)
	d1 := createTestDonation(t, db, "rest@food.com")
	d2 := createTestDonation(t, db, "rest@food.com")
	createTestReview(t, db, d1.ID, "a@charity.org")
	createTestReview(t, db, d2.ID, "a@charity.org")
	createTestReview(t, db, d1.ID, "b@charity.org")

	reviews, err := db.Reviews.ListByAuthor(context.Background(), "a@charity.org")
	if err != nil {
		t.Fatalf("ListByAuthor() error = %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	for _, r := range reviews {
		if r.CharityEmail != "a@charity.org" {
			t.Errorf("got a review by %q", r.CharityEmail)
		}
	}
}
