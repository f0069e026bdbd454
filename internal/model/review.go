package model

import "time"

// Review is feedback a charity leaves on a donation. Append-only; only the
// author may delete their own review.
type Review struct {
	ID           string    `json:"id"           db:"id"`
	DonationID   string    `json:"donationId"   db:"donation_id"`
	CharityEmail string    `json:"charityEmail" db:"charity_email"`
	Rating       int       `json:"rating"       db:"rating"`
	Comment      string    `json:"comment"      db:"comment"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

// Favorite marks a donation a user wants to keep an eye on.
// At most one row per (user, donation) — enforced by a unique index, not an
// application-level existence check.
type Favorite struct {
	ID         string    `json:"id"         db:"id"`
	UserEmail  string    `json:"userEmail"  db:"user_email"`
	DonationID string    `json:"donationId" db:"donation_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

// FavoriteView is the read shape for GET /favorites/{email}: the favorite
// joined with its donation's display fields.
//
/// EXPLICIT VIEW STRUCTS:
// Rather than an ad hoc merge of two records, every field of the response is
// named here, and a favorite whose donation has disappeared is skipped
// rather than emitted half-empty.
type FavoriteView struct {
	ID             string         `json:"id"`
	DonationID     string         `json:"donationId"`
	Title          string         `json:"title"`
	FoodType       string         `json:"foodType"`
	Quantity       string         `json:"quantity"`
	PickupTime     string         `json:"pickupTime"`
	RestaurantName string         `json:"restaurantName"`
	Location       string         `json:"location"`
	Image          string         `json:"image"`
	Status         DonationStatus `json:"status"`
}
