package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
)

// =========================================================================
// UPSERT TESTS
// =========================================================================

func TestUserUpsert_FirstLogin(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "alice@example.com", Name: "Alice"}
	created, err := db.Users.Upsert(context.Background(), user)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if !created {
		t.Error("Upsert() created = false for a first login")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want default %q", user.Role, model.RoleUser)
	}
	if user.CreatedAt.IsZero() || user.LastLogIn.IsZero() {
		t.Error("Upsert() did not stamp created_at / last_log_in")
	}
}

func TestUserUpsert_SecondLoginKeepsRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "carol@charity.org", model.RoleCharity)

	// Second login claims role "admin" — the stored role must win.
	again := &model.User{Email: "carol@charity.org", Name: "Carol", Role: model.RoleAdmin}
	created, err := db.Users.Upsert(context.Background(), again)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if created {
		t.Error("Upsert() created = true for an existing account")
	}
	if again.Role != model.RoleCharity {
		t.Errorf("Role = %q, want the stored %q (upsert must not escalate)", again.Role, model.RoleCharity)
	}
}

func TestUserUpsert_SecondLoginRefreshesLastLogIn(t *testing.T) {
	db := newTestDB(t)
	first := createTestUser(t, db, "alice@example.com", model.RoleUser)

	again := &model.User{Email: "alice@example.com"}
	if _, err := db.Users.Upsert(context.Background(), again); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if again.LastLogIn.Before(first.LastLogIn) {
		t.Error("Upsert() did not refresh last_log_in")
	}
	if !again.CreatedAt.Equal(first.CreatedAt) {
		t.Error("Upsert() changed created_at on a later login")
	}
}

// =========================================================================
// GET BY EMAIL TESTS
// =========================================================================

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "rest@food.com", model.RoleRestaurant)

	found, err := db.Users.GetByEmail(context.Background(), "rest@food.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.Role != model.RoleRestaurant {
		t.Errorf("Role = %q, want %q", found.Role, model.RoleRestaurant)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// SEARCH TESTS
// =========================================================================

func TestUserSearch(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice@example.com", model.RoleUser)
	createTestUser(t, db, "bob@example.com", model.RoleUser)
	createTestUser(t, db, "alicia@other.org", model.RoleCharity)

	users, err := db.Users.Search(context.Background(), "alic")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Search(alic) returned %d users, want 2", len(users))
	}
}

func TestUserSearch_EmptyTermReturnsAll(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice@example.com", model.RoleUser)
	createTestUser(t, db, "bob@example.com", model.RoleUser)

	users, err := db.Users.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Search(\"\") returned %d users, want 2", len(users))
	}
}

// =========================================================================
// SET ROLE TESTS
// =========================================================================

func TestUserSetRole(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "plain@example.com", model.RoleUser)

	if err := db.Users.SetRole(context.Background(), "plain@example.com", model.RoleAdmin); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}

	found, err := db.Users.GetByEmail(context.Background(), "plain@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", found.Role, model.RoleAdmin)
	}
}

func TestUserSetRole_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users.SetRole(context.Background(), "ghost@example.com", model.RoleAdmin)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetRole() error = %v, want ErrNotFound", err)
	}
}
