package model

import "time"

// RequestPurpose discriminates the two kinds of entries sharing the requests
// table: a charity's claim on a donation, and an application to upgrade a
// plain account to the charity role. Both live in one table, discriminated
// by the purpose column.
type RequestPurpose string

const (
	PurposePickup      RequestPurpose = "Pickup Request"
	PurposeCharityRole RequestPurpose = "Charity Role Request"
)

// RequestStatus covers both state machines.
//
// Pickup requests:       Pending → {Accepted, Rejected}; Accepted → Picked Up.
// Charity role requests: Pending → {Approved, Rejected}.
// Rejected, Picked Up and Approved are terminal — no transition leaves them.
type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestAccepted RequestStatus = "Accepted"
	RequestRejected RequestStatus = "Rejected"
	RequestPickedUp RequestStatus = "Picked Up"
	RequestApproved RequestStatus = "Approved"
)

// Terminal reports whether no further transition may leave s.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestPickedUp, RequestApproved:
		return true
	}
	return false
}

// Request is the dual-purpose ledger entry.
//
// For a pickup request the donation fields are set; for a charity role
// request the organization/transaction fields are set. Unused fields stay at
// their zero value and are omitted from JSON.
type Request struct {
	ID      string         `json:"id"      db:"id"`
	Purpose RequestPurpose `json:"purpose" db:"purpose"`
	Status  RequestStatus  `json:"status"  db:"status"`

	// Pickup request fields
	DonationID  string     `json:"donationId,omitempty"  db:"donation_id"`
	CharityName string     `json:"charityName,omitempty" db:"charity_name"`
	Description string     `json:"description,omitempty" db:"description"`
	PickupTime  string     `json:"pickupTime,omitempty"  db:"pickup_time"`
	PickupDate  *time.Time `json:"pickupDate,omitempty"  db:"pickup_date"`

	// Charity role request fields
	OrganizationName string  `json:"organizationName,omitempty" db:"organization_name"`
	MissionStatement string  `json:"missionStatement,omitempty" db:"mission_statement"`
	TransactionID    string  `json:"transactionId,omitempty"    db:"transaction_id"`
	Amount           float64 `json:"amount,omitempty"           db:"amount"`

	// Email is the requester for both purposes: the charity claiming a
	// pickup, or the user applying for the charity role.
	Email     string    `json:"email"     db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
