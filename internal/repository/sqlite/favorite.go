package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

var _ repository.FavoriteRepository = (*FavoriteRepo)(nil)

// Create inserts a favorite. Duplicate (user, donation) pairs are refused by
// ux_favorites_user_donation; a check-then-insert here would race.
func (r *FavoriteRepo) Create(ctx context.Context, favorite *model.Favorite) error {
	favorite.ID = xid.New().String()
	favorite.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO favorites (id, user_email, donation_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		favorite.ID, favorite.UserEmail, favorite.DonationID, favorite.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("favorite", "Favorite already exists")
		}
		return fmt.Errorf("sqlite: creating favorite: %w", err)
	}

	return nil
}

// ListByUser returns the user's favorites joined with their
// donations. An INNER JOIN means a favorite whose donation row has vanished
// is simply not emitted — fail closed, no half-empty entries.
func (r *FavoriteRepo) ListByUser(ctx context.Context, email string) ([]model.FavoriteView, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT f.id, f.donation_id, d.title, d.food_type, d.quantity,
		        d.pickup_time, d.restaurant_name, d.location, d.image, d.status
		 FROM favorites f
		 JOIN donations d ON d.id = f.donation_id
		 WHERE f.user_email = ?
		 ORDER BY f.created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for %s: %w", email, err)
	}
	defer rows.Close()

	views := []model.FavoriteView{}
	for rows.Next() {
		var v model.FavoriteView
		if err := rows.Scan(
			&v.ID, &v.DonationID, &v.Title, &v.FoodType, &v.Quantity,
			&v.PickupTime, &v.RestaurantName, &v.Location, &v.Image, &v.Status,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}

	return views, nil
}
