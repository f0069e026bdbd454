package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodbridge/internal/model"
	"github.com/sakif/foodbridge/internal/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

func (r *TransactionRepo) Create(ctx context.Context, txn *model.Transaction) error {
	txn.ID = xid.New().String()
	txn.Status = "succeeded"
	txn.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO transactions (id, email, amount, transaction_id, purpose, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Email, txn.Amount, txn.TransactionID,
		txn.Purpose, txn.Status, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating transaction: %w", err)
	}

	return nil
}

// ListByEmail returns the user's transactions, each enriched with the status
// of the charity role request that shares its external transaction id.
//
// READ-TIME JOIN, NOT A FOREIGN KEY:
// The transaction id is issued by the payment provider and reported by the
// client; a request may reference it before or after the transaction is
// recorded, or never. A LEFT JOIN surfaces whatever link exists right now.
func (r *TransactionRepo) ListByEmail(ctx context.Context, email string) ([]model.TransactionView, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT t.id, t.email, t.amount, t.transaction_id, t.purpose,
		        t.status, t.created_at, req.status
		 FROM transactions t
		 LEFT JOIN requests req
		   ON req.transaction_id = t.transaction_id AND req.purpose = ?
		 WHERE t.email = ?
		 ORDER BY t.created_at DESC`,
		model.PurposeCharityRole, email,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing transactions for %s: %w", email, err)
	}
	defer rows.Close()

	return scanTransactionViews(rows)
}

func (r *TransactionRepo) ListAll(ctx context.Context) ([]model.TransactionView, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT t.id, t.email, t.amount, t.transaction_id, t.purpose,
		        t.status, t.created_at, req.status
		 FROM transactions t
		 LEFT JOIN requests req
		   ON req.transaction_id = t.transaction_id AND req.purpose = ?
		 ORDER BY t.created_at DESC`,
		model.PurposeCharityRole,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactionViews(rows)
}

func scanTransactionViews(rows *sql.Rows) ([]model.TransactionView, error) {
	views := []model.TransactionView{}
	for rows.Next() {
		var v model.TransactionView
		var reqStatus sql.NullString
		if err := rows.Scan(
			&v.ID, &v.Email, &v.Amount, &v.TransactionID, &v.Purpose,
			&v.Status, &v.CreatedAt, &reqStatus,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning transaction row: %w", err)
		}
		if reqStatus.Valid {
			v.RequestStatus = model.RequestStatus(reqStatus.String)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating transactions: %w", err)
	}
	return views, nil
}
