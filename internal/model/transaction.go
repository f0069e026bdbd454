package model

import "time"

// Transaction is an append-only record of a client-reported payment
// confirmation. The transaction id is external (issued by the payment
// provider); the link to a charity role request is by that id at read time,
// never by a foreign-key constraint.
type Transaction struct {
	ID            string    `json:"id"            db:"id"`
	Email         string    `json:"email"         db:"email"`
	Amount        float64   `json:"amount"        db:"amount"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	Purpose       string    `json:"purpose"       db:"purpose"`
	Status        string    `json:"status"        db:"status"` // always "succeeded"
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
}

// TransactionView is a transaction enriched with the current status of the
// charity role request that shares its external transaction id, if any.
// RequestStatus is empty when no request references the transaction.
type TransactionView struct {
	Transaction
	RequestStatus RequestStatus `json:"requestStatus,omitempty"`
}
