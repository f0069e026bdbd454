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

var _ repository.ReviewRepository = (*ReviewRepo)(nil)

func (r *ReviewRepo) Create(ctx context.Context, review *model.Review) error {
	review.ID = xid.New().String()
	review.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO reviews (id, donation_id, charity_email, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		review.ID, review.DonationID, review.CharityEmail,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating review: %w", err)
	}

	return nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var rev model.Review
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, donation_id, charity_email, rating, comment, created_at
		 FROM reviews WHERE id = ?`,
		id,
	).Scan(&rev.ID, &rev.DonationID, &rev.CharityEmail, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}

	return &rev, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("review", id)
	}

	return nil
}

func (r *ReviewRepo) ListByDonation(ctx context.Context, donationID string) ([]model.Review, error) {
	return r.list(ctx,
		`SELECT id, donation_id, charity_email, rating, comment, created_at
		 FROM reviews WHERE donation_id = ? ORDER BY created_at DESC`,
		donationID)
}

func (r *ReviewRepo) ListByAuthor(ctx context.Context, email string) ([]model.Review, error) {
	return r.list(ctx,
		`SELECT id, donation_id, charity_email, rating, comment, created_at
		 FROM reviews WHERE charity_email = ? ORDER BY created_at DESC`,
		email)
}

func (r *ReviewRepo) list(ctx context.Context, query, arg string) ([]model.Review, error) {
	rows, err := r.conn.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.DonationID, &rev.CharityEmail, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning review row: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}

	return reviews, nil
}
