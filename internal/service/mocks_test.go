package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// WHAT IS A MOCK?
// A mock is a fake implementation of an interface used in tests.
// Instead of talking to a real database, it stores data in memory.
//
// WHY MOCK?
// 1. SPEED: No database setup, no disk I/O, tests run in microseconds
// 2. ISOLATION: Tests only test the service logic, not the database
// 3. CONTROL: You can simulate errors (database down, connection timeout)
//    that would be hard to trigger with a real database
//
// The service doesn't know or care whether it gets a mock or the sqlite
// implementation — both satisfy the same repository interfaces. The DATABASE
// invariants (transactional accept, unique indexes) are tested against real
// SQLite in internal/repository/sqlite; these mocks only need the contract
// the service sees.

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Upsert(_ context.Context, user *model.User) (bool, error) {
	if existing, ok := m.users[user.Email]; ok {
		*user = *existing
		return false, nil
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	stored := *user
	m.users[user.Email] = &stored
	return true, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) Search(_ context.Context, _ string) ([]model.User, error) {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) SetRole(_ context.Context, email string, role model.Role) error {
	user, ok := m.users[email]
	if !ok {
		return apperror.NotFound("user", email)
	}
	user.Role = role
	return nil
}

type mockDonationRepo struct {
	donations map[string]*model.Donation
	nextID    int
}

func newMockDonationRepo() *mockDonationRepo {
	return &mockDonationRepo{donations: make(map[string]*model.Donation)}
}

func (m *mockDonationRepo) Create(_ context.Context, donation *model.Donation) error {
	m.nextID++
	donation.ID = fmt.Sprintf("don-%d", m.nextID)
	donation.Status = model.DonationPending
	stored := *donation
	m.donations[donation.ID] = &stored
	return nil
}

func (m *mockDonationRepo) GetByID(_ context.Context, id string) (*model.Donation, error) {
	donation, ok := m.donations[id]
	if !ok {
		return nil, apperror.NotFound("donation", id)
	}
	result := *donation
	return &result, nil
}

func (m *mockDonationRepo) Update(_ context.Context, donation *model.Donation) error {
	stored, ok := m.donations[donation.ID]
	if !ok {
		return apperror.NotFound("donation", donation.ID)
	}
	if stored.Status == model.DonationRejected {
		return apperror.InvalidTransition("a Rejected donation cannot be updated")
	}
	copied := *donation
	m.donations[donation.ID] = &copied
	return nil
}

func (m *mockDonationRepo) SetStatus(_ context.Context, id string, status model.DonationStatus) error {
	donation, ok := m.donations[id]
	if !ok {
		return apperror.NotFound("donation", id)
	}
	donation.Status = status
	return nil
}

func (m *mockDonationRepo) ListFeatured(_ context.Context, limit int) ([]model.Donation, error) {
	result := []model.Donation{}
	for _, d := range m.donations {
		if len(result) == limit {
			break
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDonationRepo) ListByRestaurant(_ context.Context, email string) ([]model.Donation, error) {
	result := []model.Donation{}
	for _, d := range m.donations {
		if d.RestaurantEmail == email {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDonationRepo) ListAll(_ context.Context) ([]model.Donation, error) {
	result := []model.Donation{}
	for _, d := range m.donations {
		result = append(result, *d)
	}
	return result, nil
}

type mockRequestRepo struct {
	requests map[string]*model.Request
	users    *mockUserRepo // for Approve's role flip; may be nil
	nextID   int
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.Request)}
}

func (m *mockRequestRepo) Create(_ context.Context, request *model.Request) error {
	if request.Purpose == model.PurposeCharityRole {
		for _, r := range m.requests {
			if r.Purpose == model.PurposeCharityRole && r.Email == request.Email &&
				(r.Status == model.RequestPending || r.Status == model.RequestApproved) {
				return apperror.Conflict("charity role request",
					"an application for this email is already pending or approved")
			}
		}
	}
	m.nextID++
	request.ID = fmt.Sprintf("req-%d", m.nextID)
	request.Status = model.RequestPending
	stored := *request
	m.requests[request.ID] = &stored
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.Request, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("request", id)
	}
	result := *request
	return &result, nil
}

func (m *mockRequestRepo) Accept(_ context.Context, id string) error {
	target, ok := m.requests[id]
	if !ok || target.Purpose != model.PurposePickup {
		return apperror.NotFound("request", id)
	}
	if target.Status != model.RequestPending {
		return apperror.InvalidTransition("only Pending requests can be accepted")
	}
	for _, r := range m.requests {
		if r.DonationID == target.DonationID && r.Purpose == model.PurposePickup &&
			r.Status == model.RequestAccepted {
			return apperror.Conflict("request", "another request for this donation is already Accepted")
		}
	}
	target.Status = model.RequestAccepted
	for _, r := range m.requests {
		if r.ID != id && r.DonationID == target.DonationID &&
			r.Purpose == model.PurposePickup && r.Status == model.RequestPending {
			r.Status = model.RequestRejected
		}
	}
	return nil
}

func (m *mockRequestRepo) SetStatus(_ context.Context, id string, status model.RequestStatus) error {
	request, ok := m.requests[id]
	if !ok {
		return apperror.NotFound("request", id)
	}
	request.Status = status
	return nil
}

func (m *mockRequestRepo) ConfirmPickup(ctx context.Context, id string) (*model.Request, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("request", id)
	}
	if request.Status != model.RequestAccepted {
		return nil, apperror.InvalidTransition("only Accepted requests can be picked up")
	}
	request.Status = model.RequestPickedUp
	return m.GetByID(ctx, id)
}

func (m *mockRequestRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return apperror.NotFound("request", id)
	}
	delete(m.requests, id)
	return nil
}

func (m *mockRequestRepo) ListByDonation(_ context.Context, donationID string) ([]model.Request, error) {
	result := []model.Request{}
	for _, r := range m.requests {
		if r.DonationID == donationID && r.Purpose == model.PurposePickup {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequestRepo) ListPickupsByCharity(_ context.Context, email string) ([]model.Request, error) {
	result := []model.Request{}
	for _, r := range m.requests {
		if r.Email == email && r.Purpose == model.PurposePickup {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRequestRepo) LiveCharityRequest(_ context.Context, email string) (*model.Request, error) {
	for _, r := range m.requests {
		if r.Purpose == model.PurposeCharityRole && r.Email == email &&
			(r.Status == model.RequestPending || r.Status == model.RequestApproved) {
			result := *r
			return &result, nil
		}
	}
	return nil, nil
}

func (m *mockRequestRepo) Approve(ctx context.Context, id string) (*model.Request, error) {
	request, ok := m.requests[id]
	if !ok || request.Purpose != model.PurposeCharityRole {
		return nil, apperror.NotFound("charity role request", id)
	}
	if request.Status != model.RequestPending {
		return nil, apperror.InvalidTransition("only Pending applications can be approved")
	}
	if m.users != nil {
		if err := m.users.SetRole(ctx, request.Email, model.RoleCharity); err != nil {
			return nil, err
		}
	}
	request.Status = model.RequestApproved
	return m.GetByID(ctx, id)
}

// =========================================================================
// SHARED HELPERS
// =========================================================================

// testLogger discards nothing but only logs at Error, keeping test output
// readable while still surfacing real failures.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
