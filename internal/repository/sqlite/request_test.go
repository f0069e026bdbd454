package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
)

// =========================================================================
// ACCEPT: BROADCAST REJECT
// =========================================================================

func TestRequestAccept_RejectsSiblings(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")

	winner := createPickupRequest(t, db, donation.ID, "a@charity.org")
	loser1 := createPickupRequest(t, db, donation.ID, "b@charity.org")
	loser2 := createPickupRequest(t, db, donation.ID, "c@charity.org")

	if err := db.Requests.Accept(context.Background(), winner.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	got, _ := db.Requests.GetByID(context.Background(), winner.ID)
	if got.Status != model.RequestAccepted {
		t.Errorf("winner status = %q, want %q", got.Status, model.RequestAccepted)
	}
	for _, loser := range []*model.Request{loser1, loser2} {
		got, _ := db.Requests.GetByID(context.Background(), loser.ID)
		if got.Status != model.RequestRejected {
			t.Errorf("sibling %s status = %q, want %q", loser.ID, got.Status, model.RequestRejected)
		}
	}
}

func TestRequestAccept_SecondAcceptOnSameDonationFails(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")

	first := createPickupRequest(t, db, donation.ID, "a@charity.org")
	second := createPickupRequest(t, db, donation.ID, "b@charity.org")

	if err := db.Requests.Accept(context.Background(), first.ID); err != nil {
		t.Fatalf("first Accept() error = %v", err)
	}

	// The second request has already been swept to Rejected by the first
	// accept, so a second accept must fail and change nothing.
	err := db.Requests.Accept(context.Background(), second.ID)
	if err == nil {
		t.Fatal("second Accept() should fail — donation already has an Accepted request")
	}

	got, _ := db.Requests.GetByID(context.Background(), second.ID)
	if got.Status != model.RequestRejected {
		t.Errorf("second request status = %q, want %q", got.Status, model.RequestRejected)
	}

	// Exactly one Accepted request on the donation, ever
	all, _ := db.Requests.ListByDonation(context.Background(), donation.ID)
	accepted := 0
	for _, r := range all {
		if r.Status == model.RequestAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("donation has %d Accepted requests, want exactly 1", accepted)
	}
}

func TestRequestAccept_ConcurrentAcceptsSingleWinner(t *testing.T) {
	db := newFileTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")

	const racers = 8
	ids := make([]string, racers)
	for i := range ids {
		ids[i] = createPickupRequest(t, db, donation.ID, fmt.Sprintf("c%d@charity.org", i)).ID
	}

	// Every request races to be the accepted one. Whichever transaction gets
	// the write lock first wins; the rest find their target already swept to
	// Rejected, or an Accepted sibling, and fail.
	var wins atomic.Int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := db.Requests.Accept(context.Background(), id); err == nil {
				wins.Add(1)
			}
		}(id)
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("successful Accept calls = %d, want exactly 1", got)
	}

	all, err := db.Requests.ListByDonation(context.Background(), donation.ID)
	if err != nil {
		t.Fatalf("ListByDonation() error = %v", err)
	}
	accepted, rejected := 0, 0
	for _, r := range all {
		switch r.Status {
		case model.RequestAccepted:
			accepted++
		case model.RequestRejected:
			rejected++
		}
	}
	if accepted != 1 {
		t.Errorf("donation has %d Accepted requests after the race, want exactly 1", accepted)
	}
	if rejected != racers-1 {
		t.Errorf("donation has %d Rejected requests after the race, want %d", rejected, racers-1)
	}
}

func TestRequestCreate_ConcurrentCharityApplicationsSingleSurvivor(t *testing.T) {
	db := newFileTestDB(t)

	// N simultaneous applications for the same email. The partial unique
	// index is the only duplicate check, so this is exactly the window a
	// read-then-insert guard would lose.
	const racers = 8
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := &model.Request{
				Purpose:          model.PurposeCharityRole,
				Email:            "applicant@example.com",
				OrganizationName: "Helping Hands",
				MissionStatement: "Feed the hungry",
			}
			if err := db.Requests.Create(context.Background(), req); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := created.Load(); got != 1 {
		t.Errorf("successful creates = %d, want exactly 1", got)
	}

	var liveRows int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM requests
		 WHERE email = ? AND purpose = ? AND status IN (?, ?)`,
		"applicant@example.com", model.PurposeCharityRole,
		model.RequestPending, model.RequestApproved,
	).Scan(&liveRows)
	if err != nil {
		t.Fatalf("counting live applications: %v", err)
	}
	if liveRows != 1 {
		t.Errorf("live applications after the race = %d, want exactly 1", liveRows)
	}
}

func TestRequestAccept_OtherDonationsUntouched(t *testing.T) {
	db := newTestDB(t)
	d1 := createTestDonation(t, db, "rest@food.com")
	d2 := createTestDonation(t, db, "rest@food.com")

	target := createPickupRequest(t, db, d1.ID, "a@charity.org")
	unrelated := createPickupRequest(t, db, d2.ID, "a@charity.org")

	if err := db.Requests.Accept(context.Background(), target.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	got, _ := db.Requests.GetByID(context.Background(), unrelated.ID)
	if got.Status != model.RequestPending {
		t.Errorf("request on another donation status = %q, want %q (sweep leaked)", got.Status, model.RequestPending)
	}
}

func TestRequestAccept_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Requests.Accept(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Accept() error = %v, want ErrNotFound", err)
	}
}

func TestRequestAccept_CharityRoleRequestIsNotAcceptable(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "applicant@example.com", model.RoleUser)
	app := createCharityRequest(t, db, "applicant@example.com")

	// Accept only operates on pickup requests; an application id is NotFound.
	err := db.Requests.Accept(context.Background(), app.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Accept() on charity role request error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CONFIRM PICKUP
// =========================================================================

func TestRequestConfirmPickup(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")
	req := createPickupRequest(t, db, donation.ID, "a@charity.org")

	if err := db.Requests.Accept(context.Background(), req.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	confirmed, err := db.Requests.ConfirmPickup(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("ConfirmPickup() error = %v", err)
	}
	if confirmed.Status != model.RequestPickedUp {
		t.Errorf("status = %q, want %q", confirmed.Status, model.RequestPickedUp)
	}
	if confirmed.PickupDate == nil {
		t.Error("ConfirmPickup() did not stamp pickup_date")
	}
}

func TestRequestConfirmPickup_RequiresAccepted(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")
	req := createPickupRequest(t, db, donation.ID, "a@charity.org")

	// Still Pending — cannot skip straight to Picked Up
	_, err := db.Requests.ConfirmPickup(context.Background(), req.ID)
	if !errors.Is(err, apperror.ErrInvalidTransition) {
		t.Fatalf("ConfirmPickup() on Pending request error = %v, want ErrInvalidTransition", err)
	}

	got, _ := db.Requests.GetByID(context.Background(), req.ID)
	if got.Status != model.RequestPending {
		t.Errorf("status = %q, want unchanged %q", got.Status, model.RequestPending)
	}
}

func TestRequestConfirmPickup_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Requests.ConfirmPickup(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ConfirmPickup() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CHARITY ROLE REQUEST: DUPLICATE PREVENTION
// =========================================================================

func TestCharityRequestCreate_DuplicateLiveBlocked(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "applicant@example.com", model.RoleUser)
	createCharityRequest(t, db, "applicant@example.com")

	// A second live (Pending) application for the same email must fail with
	// Conflict — the partial unique index enforces it inside the INSERT.
	dup := &model.Request{
		Purpose:          model.PurposeCharityRole,
		Email:            "applicant@example.com",
		OrganizationName: "Second Org",
		MissionStatement: "Also feed the hungry",
	}
	err := db.Requests.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate application error = %v, want ErrConflict", err)
	}
}

func TestCharityRequestCreate_AllowedAfterRejection(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "applicant@example.com", model.RoleUser)
	first := createCharityRequest(t, db, "applicant@example.com")

	// Rejected applications don't count against the one-live-application rule
	if err := db.Requests.SetStatus(context.Background(), first.ID, model.RequestRejected); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	second := &model.Request{
		Purpose:          model.PurposeCharityRole,
		Email:            "applicant@example.com",
		OrganizationName: "Helping Hands",
		MissionStatement: "Try again",
	}
	if err := db.Requests.Create(context.Background(), second); err != nil {
		t.Fatalf("Create() after rejection error = %v", err)
	}
}

func TestCharityRequestCreate_DifferentEmailsIndependent(t *testing.T) {
	db := newTestDB(t)
	createCharityRequest(t, db, "a@example.com")
	createCharityRequest(t, db, "b@example.com")

	// Pickup requests share the table but never trip the charity index
	donation := createTestDonation(t, db, "rest@food.com")
	createPickupRequest(t, db, donation.ID, "a@example.com")
	createPickupRequest(t, db, donation.ID, "a@example.com")
}

// =========================================================================
// LIVE CHARITY REQUEST LOOKUP
// =========================================================================

func TestLiveCharityRequest(t *testing.T) {
	db := newTestDB(t)
	created := createCharityRequest(t, db, "applicant@example.com")

	found, err := db.Requests.LiveCharityRequest(context.Background(), "applicant@example.com")
	if err != nil {
		t.Fatalf("LiveCharityRequest() error = %v", err)
	}
	if found == nil {
		t.Fatal("LiveCharityRequest() = nil, want the pending application")
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
}

func TestLiveCharityRequest_NoneIsNilNil(t *testing.T) {
	db := newTestDB(t)

	found, err := db.Requests.LiveCharityRequest(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("LiveCharityRequest() error = %v", err)
	}
	if found != nil {
		t.Errorf("LiveCharityRequest() = %+v, want nil", found)
	}
}

func TestLiveCharityRequest_RejectedDoesNotCount(t *testing.T) {
	db := newTestDB(t)
	req := createCharityRequest(t, db, "applicant@example.com")
	if err := db.Requests.SetStatus(context.Background(), req.ID, model.RequestRejected); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	found, err := db.Requests.LiveCharityRequest(context.Background(), "applicant@example.com")
	if err != nil {
		t.Fatalf("LiveCharityRequest() error = %v", err)
	}
	if found != nil {
		t.Error("LiveCharityRequest() returned a Rejected application")
	}
}

// =========================================================================
// APPROVE: REQUEST STATUS + ROLE IN ONE TRANSACTION
// =========================================================================

func TestCharityRequestApprove_FlipsRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "applicant@example.com", model.RoleUser)
	req := createCharityRequest(t, db, "applicant@example.com")

	approved, err := db.Requests.Approve(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if approved.Status != model.RequestApproved {
		t.Errorf("request status = %q, want %q", approved.Status, model.RequestApproved)
	}

	user, _ := db.Users.GetByEmail(context.Background(), "applicant@example.com")
	if user.Role != model.RoleCharity {
		t.Errorf("user role = %q, want %q", user.Role, model.RoleCharity)
	}
}

func TestCharityRequestApprove_OnlyPending(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "applicant@example.com", model.RoleUser)
	req := createCharityRequest(t, db, "applicant@example.com")

	if _, err := db.Requests.Approve(context.Background(), req.ID); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	// Approving twice must fail — Approved is terminal
	_, err := db.Requests.Approve(context.Background(), req.ID)
	if !errors.Is(err, apperror.ErrInvalidTransition) {
		t.Errorf("second Approve() error = %v, want ErrInvalidTransition", err)
	}
}

func TestCharityRequestApprove_MissingUserRollsBack(t *testing.T) {
	db := newTestDB(t)
	// Application exists but the account does not
	req := createCharityRequest(t, db, "ghost@example.com")

	_, err := db.Requests.Approve(context.Background(), req.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Approve() error = %v, want ErrNotFound", err)
	}

	// The request must still be Pending — no half-applied approval
	got, _ := db.Requests.GetByID(context.Background(), req.ID)
	if got.Status != model.RequestPending {
		t.Errorf("request status = %q, want %q after rollback", got.Status, model.RequestPending)
	}
}

// =========================================================================
// DELETE (CANCEL) AND LISTS
// =========================================================================

func TestRequestDelete(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")
	req := createPickupRequest(t, db, donation.ID, "a@charity.org")

	if err := db.Requests.Delete(context.Background(), req.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Requests.GetByID(context.Background(), req.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRequestDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Requests.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRequestListPickupsByCharity_ExcludesApplications(t *testing.T) {
	db := newTestDB(t)
	donation := createTestDonation(t, db, "rest@food.com")
	createPickupRequest(t, db, donation.ID, "a@charity.org")
	createCharityRequest(t, db, "a@charity.org")

	requests, err := db.Requests.ListPickupsByCharity(context.Background(), "a@charity.org")
	if err != nil {
		t.Fatalf("ListPickupsByCharity() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1 (applications must not leak in)", len(requests))
	}
	if requests[0].Purpose != model.PurposePickup {
		t.Errorf("purpose = %q, want %q", requests[0].Purpose, model.PurposePickup)
	}
}
