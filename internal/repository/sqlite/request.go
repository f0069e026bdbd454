package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodbridge/internal/apperror"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

const requestColumns = `id, purpose, status, email, donation_id, charity_name,
	description, pickup_time, pickup_date, organization_name,
	mission_statement, transaction_id, amount, created_at`

// Create inserts a request of either purpose with status Pending.
//
// For a charity role request, the partial unique index
// ux_requests_live_charity is the duplicate check: a second live application
// for the same email fails the INSERT itself, with no window for two
// concurrent creates to both slip past a prior existence read.
func (r *RequestRepo) Create(ctx context.Context, request *model.Request) error {
	request.ID = xid.New().String()
	request.Status = model.RequestPending
	request.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO requests (id, purpose, status, email, donation_id,
		 charity_name, description, pickup_time, organization_name,
		 mission_statement, transaction_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Purpose,
		request.Status,
		request.Email,
		request.DonationID,
		request.CharityName,
		request.Description,
		request.PickupTime,
		request.OrganizationName,
		request.MissionStatement,
		request.TransactionID,
		request.Amount,
		request.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("charity role request",
				"an application for this email is already pending or approved")
		}
		return fmt.Errorf("sqlite: creating request: %w", err)
	}

	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id string) (*model.Request, error) {
	return scanRequest(r.conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id), id)
}

// Accept is the broadcast-reject operation at the heart of the pickup
// lifecycle: the target request becomes Accepted and every other
// non-terminal request on the same donation becomes Rejected.
//
// BOTH PHASES SHARE ONE TRANSACTION. If the process dies between them the
// transaction rolls back and the ledger is untouched — there is no state
// where the target is Accepted but its siblings are still Pending. And
// because SQLite serializes writers, two concurrent accepts on the same
// donation cannot interleave: the second one finds either its target already
// Rejected (swept by the first) or a sibling already Accepted, and fails.
func (r *RequestRepo) Accept(ctx context.Context, id string) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning accept tx: %w", err)
	}
	defer tx.Rollback()

	var donationID string
	var status model.RequestStatus
	err = tx.QueryRowContext(ctx,
		`SELECT donation_id, status FROM requests
		 WHERE id = ? AND purpose = ?`,
		id, model.PurposePickup,
	).Scan(&donationID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("request", id)
		}
		return fmt.Errorf("sqlite: loading request %s: %w", id, err)
	}

	if status != model.RequestPending {
		return apperror.InvalidTransition("only Pending requests can be accepted")
	}

	// Exactly-one-Accepted-per-donation: refuse if a sibling already won.
	var accepted int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests
		 WHERE donation_id = ? AND purpose = ? AND status = ?`,
		donationID, model.PurposePickup, model.RequestAccepted,
	).Scan(&accepted)
	if err != nil {
		return fmt.Errorf("sqlite: counting accepted siblings: %w", err)
	}
	if accepted > 0 {
		return apperror.Conflict("request", "another request for this donation is already Accepted")
	}

	// Phase (a): promote the target. The status guard in the WHERE clause
	// re-checks Pending inside the write.
	result, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ? AND status = ?`,
		model.RequestAccepted, id, model.RequestPending,
	)
	if err != nil {
		if isLocked(err) {
			return apperror.Conflict("request", "donation is being updated concurrently, try again")
		}
		return fmt.Errorf("sqlite: accepting request %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.InvalidTransition("only Pending requests can be accepted")
	}

	// Phase (b): sweep the siblings. Terminal rows keep their status.
	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?
		 WHERE donation_id = ? AND purpose = ? AND id != ? AND status = ?`,
		model.RequestRejected, donationID, model.PurposePickup, id, model.RequestPending,
	)
	if err != nil {
		return fmt.Errorf("sqlite: rejecting sibling requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isLocked(err) {
			return apperror.Conflict("request", "donation is being updated concurrently, try again")
		}
		return fmt.Errorf("sqlite: committing accept tx: %w", err)
	}

	return nil
}

// SetStatus writes a status directly. Transition legality is the service
// layer's job; this just persists and reports NotFound on a missing row.
func (r *RequestRepo) SetStatus(ctx context.Context, id string, status model.RequestStatus) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting request %s status: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("request", id)
	}

	return nil
}

// ConfirmPickup moves an Accepted request to Picked Up and stamps the pickup
// date. The Accepted guard lives in the WHERE clause: a request in any other
// state is left untouched and the caller learns why.
func (r *RequestRepo) ConfirmPickup(ctx context.Context, id string) (*model.Request, error) {
	now := time.Now()
	result, err := r.conn.ExecContext(ctx,
		`UPDATE requests SET status = ?, pickup_date = ?
		 WHERE id = ? AND purpose = ? AND status = ?`,
		model.RequestPickedUp, now, id, model.PurposePickup, model.RequestAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: confirming pickup %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperror.InvalidTransition("only Accepted requests can be picked up")
	}

	return r.GetByID(ctx, id)
}

func (r *RequestRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting request %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("request", id)
	}

	return nil
}

func (r *RequestRepo) ListByDonation(ctx context.Context, donationID string) ([]model.Request, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE donation_id = ? AND purpose = ?
		 ORDER BY created_at DESC`,
		donationID, model.PurposePickup,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for donation %s: %w", donationID, err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func (r *RequestRepo) ListPickupsByCharity(ctx context.Context, email string) ([]model.Request, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE email = ? AND purpose = ?
		 ORDER BY created_at DESC`,
		email, model.PurposePickup,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for charity %s: %w", email, err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// LiveCharityRequest returns the email's Pending or Approved application, or
// nil when none exists. The unique index guarantees at most one row matches.
func (r *RequestRepo) LiveCharityRequest(ctx context.Context, email string) (*model.Request, error) {
	req, err := scanRequest(r.conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE email = ? AND purpose = ? AND status IN (?, ?)`,
		email, model.PurposeCharityRole, model.RequestPending, model.RequestApproved,
	), email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// Approve flips a charity role request to Approved AND the applicant's role
// to charity in the same transaction — there is no window where the request
// reads Approved while the account is still a plain user.
func (r *RequestRepo) Approve(ctx context.Context, id string) (*model.Request, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning approve tx: %w", err)
	}
	defer tx.Rollback()

	var email string
	var status model.RequestStatus
	err = tx.QueryRowContext(ctx,
		`SELECT email, status FROM requests
		 WHERE id = ? AND purpose = ?`,
		id, model.PurposeCharityRole,
	).Scan(&email, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("charity role request", id)
		}
		return nil, fmt.Errorf("sqlite: loading charity request %s: %w", id, err)
	}

	if status != model.RequestPending {
		return nil, apperror.InvalidTransition("only Pending applications can be approved")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE requests SET status = ? WHERE id = ?`,
		model.RequestApproved, id,
	); err != nil {
		return nil, fmt.Errorf("sqlite: approving charity request %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE email = ?`,
		model.RoleCharity, email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: promoting %s to charity: %w", email, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		// Applicant account vanished — roll back rather than approve an
		// application nobody can use.
		return nil, apperror.NotFound("user", email)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing approve tx: %w", err)
	}

	return r.GetByID(ctx, id)
}

func scanRequest(row *sql.Row, id string) (*model.Request, error) {
	var r model.Request
	var pickupDate sql.NullTime
	err := row.Scan(
		&r.ID, &r.Purpose, &r.Status, &r.Email, &r.DonationID, &r.CharityName,
		&r.Description, &r.PickupTime, &pickupDate, &r.OrganizationName,
		&r.MissionStatement, &r.TransactionID, &r.Amount, &r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("request", id)
		}
		return nil, fmt.Errorf("sqlite: scanning request: %w", err)
	}
	if pickupDate.Valid {
		r.PickupDate = &pickupDate.Time
	}
	return &r, nil
}

func scanRequests(rows *sql.Rows) ([]model.Request, error) {
	requests := []model.Request{}
	for rows.Next() {
		var r model.Request
		var pickupDate sql.NullTime
		if err := rows.Scan(
			&r.ID, &r.Purpose, &r.Status, &r.Email, &r.DonationID, &r.CharityName,
			&r.Description, &r.PickupTime, &pickupDate, &r.OrganizationName,
			&r.MissionStatement, &r.TransactionID, &r.Amount, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}
		if pickupDate.Valid {
			r.PickupDate = &pickupDate.Time
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating requests: %w", err)
	}
	return requests, nil
}
