package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that passes *DB where the interface is expected.
var _ repository.UserRepository = (*UserRepo)(nil)

// Upsert creates the user on first login, or refreshes last_log_in on later
// logins. The role supplied on later calls is ignored — a client cannot
// re-post itself into a higher role; role changes go through SetRole or the
// charity-request approval path only.
func (r *UserRepo) Upsert(ctx context.Context, user *model.User) (bool, error) {
	now := time.Now()

	existing, err := r.GetByEmail(ctx, user.Email)
	if err == nil {
		// Known account: touch last_log_in, hand back the stored record.
		_, err = r.conn.ExecContext(ctx,
			`UPDATE users SET last_log_in = ? WHERE email = ?`,
			now, user.Email,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: refreshing last_log_in for %s: %w", user.Email, err)
		}
		existing.LastLogIn = now
		*user = *existing
		return false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return false, err
	}

	if user.Role == "" {
		user.Role = model.RoleUser
	}
	user.CreatedAt = now
	user.LastLogIn = now

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO users (email, name, photo_url, role, created_at, last_log_in)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.Name, user.PhotoURL, user.Role, user.CreatedAt, user.LastLogIn,
	)
	if err != nil {
		// Two first logins racing: the PRIMARY KEY settles it. Re-read the
		// winner's row and report "already existed".
		if isUniqueViolation(err) {
			existing, readErr := r.GetByEmail(ctx, user.Email)
			if readErr != nil {
				return false, readErr
			}
			*user = *existing
			return false, nil
		}
		return false, fmt.Errorf("sqlite: creating user %s: %w", user.Email, err)
	}

	return true, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.conn.QueryRowContext(ctx,
		`SELECT email, name, photo_url, role, created_at, last_log_in
		 FROM users WHERE email = ?`,
		email,
	).Scan(&u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.LastLogIn)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", email, err)
	}

	return &u, nil
}

// Search matches name or email, case-insensitively, anywhere in the string.
// LIKE with no wildcards in the term itself is enough here — the admin UI
// sends plain text, and SQLite's LIKE is case-insensitive for ASCII.
func (r *UserRepo) Search(ctx context.Context, term string) ([]model.User, error) {
	pattern := "%" + term + "%"
	rows, err := r.conn.QueryContext(ctx,
		`SELECT email, name, photo_url, role, created_at, last_log_in
		 FROM users
		 WHERE name LIKE ? OR email LIKE ?
		 ORDER BY created_at DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.LastLogIn); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// SetRole overwrites the role unconditionally. RowsAffected tells us whether
// the account exists — 0 rows changed means NotFound.
func (r *UserRepo) SetRole(ctx context.Context, email string, role model.Role) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE email = ?`,
		role, email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting role for %s: %w", email, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", email)
	}

	return nil
}
