// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives and model structs, never *http.Request, and
// return domain errors from internal/apperror, never HTTP status codes. The
// handler layer does the translation in both directions. Each service takes
// its repository as an INTERFACE, so tests inject in-memory mocks and the
// storage engine can change without touching business rules.
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

// UserService owns accounts and the role store.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Upsert registers a user on first login. Calling it again with the same
// email returns the stored account (created=false) and never duplicates the
// record or touches its role.
func (s *UserService) Upsert(ctx context.Context, user *model.User) (bool, error) {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if user.Email == "" {
		return false, apperror.ValidationFailed("email", "email is required")
	}
	if user.Role != "" && !model.ValidRole(user.Role) {
		return false, apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", user.Role))
	}

	created, err := s.repo.Upsert(ctx, user)
	if err != nil {
		s.logger.Error("failed to upsert user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("upserting user: %w", err)
	}

	if created {
		s.logger.Info("user created",
			slog.String("email", user.Email),
			slog.String("role", string(user.Role)),
		)
	}

	return created, nil
}

func (s *UserService) Get(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	return s.repo.GetByEmail(ctx, email)
}

// Search is the admin user listing; term matches name or email,
// case-insensitively, and an empty term lists everyone.
func (s *UserService) Search(ctx context.Context, term string) ([]model.User, error) {
	users, err := s.repo.Search(ctx, strings.TrimSpace(term))
	if err != nil {
		s.logger.Error("failed to search users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return users, nil
}

// SetRole overwrites an account's role. Admin-only at the route layer; this
// is also the landing point for the make-*/remove-* endpoints, where
// "remove" means demotion back to the plain user role.
func (s *UserService) SetRole(ctx context.Context, email string, role model.Role) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if !model.ValidRole(role) {
		return apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", role))
	}

	if err := s.repo.SetRole(ctx, email, role); err != nil {
		return err
	}

	s.logger.Info("role changed",
		slog.String("email", email),
		slog.String("role", string(role)),
	)
	return nil
}

// RoleByEmail resolves the account's current role, defaulting to the plain
// user role when the account is unknown — a miss is not a fault on this read
// path. Implements auth.RoleLookup, which is what keeps authorization
// decisions on live data instead of on a role claim frozen into a token.
func (s *UserService) RoleByEmail(ctx context.Context, email string) (model.Role, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return model.RoleUser, nil
		}
		return "", fmt.Errorf("resolving role for %s: %w", email, err)
	}
	return user.Role, nil
}
