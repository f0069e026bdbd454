package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/foodbridge/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Benefits:
// - Fast: no disk I/O
// - Isolated: each test gets its own database
// - Clean: automatically destroyed when the connection closes
//
// newTestDB is a "test helper" — a function used only in tests to reduce boilerplate.
// The `t.Helper()` call tells Go's test framework to report errors at the CALLER's
// line number, not inside this function. This makes test failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// This is like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// newFileTestDB creates a file-backed database in a per-test temp directory.
//
// Needed for tests that exercise concurrency: with ":memory:" each pooled
// connection gets its OWN private database, so goroutines racing through the
// pool would not even see each other's rows. A file on disk is shared by
// every connection, the way production runs.
func newFileTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts an account with the given role.
func createTestUser(t *testing.T, db *DB, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", Role: role}
	created, err := db.Users.Upsert(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	if !created {
		t.Fatalf("test user %s already existed", email)
	}
	return user
}

// createTestDonation inserts a donation posted by the given restaurant email.
func createTestDonation(t *testing.T, db *DB, restaurantEmail string) *model.Donation {
	t.Helper()
	donation := &model.Donation{
		Title:           "Surplus Biryani",
		FoodType:        "Cooked Meal",
		Quantity:        "12 servings",
		PickupTime:      "18:00-20:00",
		RestaurantName:  "Test Kitchen",
		RestaurantEmail: restaurantEmail,
		Location:        "12 Main St",
	}
	if err := db.Donations.Create(context.Background(), donation); err != nil {
		t.Fatalf("failed to create test donation: %v", err)
	}
	return donation
}

// createPickupRequest inserts a Pending pickup request against a donation.
func createPickupRequest(t *testing.T, db *DB, donationID, charityEmail string) *model.Request {
	t.Helper()
	req := &model.Request{
		Purpose:     model.PurposePickup,
		Email:       charityEmail,
		DonationID:  donationID,
		CharityName: "Test Charity",
		Description: "We can collect tonight",
		PickupTime:  "19:00",
	}
	if err := db.Requests.Create(context.Background(), req); err != nil {
		t.Fatalf("failed to create pickup request: %v", err)
	}
	return req
}

// createCharityRequest inserts a Pending charity role application.
func createCharityRequest(t *testing.T, db *DB, email string) *model.Request {
	t.Helper()
	req := &model.Request{
		Purpose:          model.PurposeCharityRole,
		Email:            email,
		OrganizationName: "Helping Hands",
		MissionStatement: "Feed the hungry",
		TransactionID:    "pi_test_123",
		Amount:           25,
	}
	if err := db.Requests.Create(context.Background(), req); err != nil {
		t.Fatalf("failed to create charity role request: %v", err)
	}
	return req
}
