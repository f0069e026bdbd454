package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

var _ repository.DonationRepository = (*DonationRepo)(nil)

const donationColumns = `id, title, food_type, quantity, pickup_time,
	restaurant_name, restaurant_email, location, image, status, created_at`

// Create inserts a new donation.
//
// ID GENERATION WITH xid:
// xid generates 20-char, URL-safe, creation-time-sortable IDs — e.g.
// "cv37rs3pp9olc6atsptg". We take a pointer receiver argument so the caller's
// struct gets the generated ID and timestamp back.
func (r *DonationRepo) Create(ctx context.Context, donation *model.Donation) error {
	donation.ID = xid.New().String()
	donation.Status = model.DonationPending
	donation.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO donations (id, title, food_type, quantity, pickup_time,
		 restaurant_name, restaurant_email, location, image, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		donation.ID,
		donation.Title,
		donation.FoodType,
		donation.Quantity,
		donation.PickupTime,
		donation.RestaurantName,
		donation.RestaurantEmail,
		donation.Location,
		donation.Image,
		donation.Status,
		donation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating donation: %w", err)
	}

	return nil
}

func (r *DonationRepo) GetByID(ctx context.Context, id string) (*model.Donation, error) {
	var d model.Donation
	err := r.conn.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = ?`,
		id,
	).Scan(
		&d.ID, &d.Title, &d.FoodType, &d.Quantity, &d.PickupTime,
		&d.RestaurantName, &d.RestaurantEmail, &d.Location, &d.Image,
		&d.Status, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("donation", id)
		}
		return nil, fmt.Errorf("sqlite: getting donation %s: %w", id, err)
	}

	return &d, nil
}

// Update rewrites the mutable fields of a donation. The service layer has
// already merged the patch and checked the Rejected-is-terminal rule; the
// WHERE clause re-checks it so a racing admin rejection can't be overwritten.
func (r *DonationRepo) Update(ctx context.Context, donation *model.Donation) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE donations
		 SET title = ?, food_type = ?, quantity = ?, pickup_time = ?,
		     location = ?, image = ?
		 WHERE id = ? AND status != ?`,
		donation.Title,
		donation.FoodType,
		donation.Quantity,
		donation.PickupTime,
		donation.Location,
		donation.Image,
		donation.ID,
		model.DonationRejected,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating donation %s: %w", donation.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or it has been rejected in the meantime.
		current, getErr := r.GetByID(ctx, donation.ID)
		if getErr != nil {
			return getErr
		}
		if current.Status == model.DonationRejected {
			return apperror.InvalidTransition("a Rejected donation cannot be updated")
		}
		return apperror.NotFound("donation", donation.ID)
	}

	return nil
}

// SetStatus is the admin verify/reject path. It overwrites unconditionally,
// so repeating a decision is idempotent rather than an error.
func (r *DonationRepo) SetStatus(ctx context.Context, id string, status model.DonationStatus) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE donations SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting donation %s status: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("donation", id)
	}

	return nil
}

// ListFeatured returns up to limit donations in insertion order.
// The API contract explicitly makes no freshness or randomness promise for
// the featured page, so rowid order (the cheapest) is what ships.
func (r *DonationRepo) ListFeatured(ctx context.Context, limit int) ([]model.Donation, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing featured donations: %w", err)
	}
	defer rows.Close()

	return scanDonations(rows)
}

func (r *DonationRepo) ListByRestaurant(ctx context.Context, email string) ([]model.Donation, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations
		 WHERE restaurant_email = ?
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing donations for %s: %w", email, err)
	}
	defer rows.Close()

	return scanDonations(rows)
}

func (r *DonationRepo) ListAll(ctx context.Context) ([]model.Donation, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing donations: %w", err)
	}
	defer rows.Close()

	return scanDonations(rows)
}

func scanDonations(rows *sql.Rows) ([]model.Donation, error) {
	donations := []model.Donation{}
	for rows.Next() {
		var d model.Donation
		if err := rows.Scan(
			&d.ID, &d.Title, &d.FoodType, &d.Quantity, &d.PickupTime,
			&d.RestaurantName, &d.RestaurantEmail, &d.Location, &d.Image,
			&d.Status, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning donation row: %w", err)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating donations: %w", err)
	}
	return donations, nil
}
