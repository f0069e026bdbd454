package model

import "time"

// DonationStatus is the moderation state of a posted donation.
//
// Lifecycle: Pending → Verified or Rejected (admin decision).
// Rejected is terminal — a rejected donation accepts no further edits.
// Verify/reject are overwrites, so repeating an admin decision is a no-op
// rather than an error.
type DonationStatus string

const (
	DonationPending  DonationStatus = "Pending"
	DonationVerified DonationStatus = "Verified"
	DonationRejected DonationStatus = "Rejected"
)

// Donation is a food-surplus offering posted by a restaurant-role account.
//
// The posting restaurant's identity is denormalized onto the donation
// (name, email, location). Requests and favorites join against the donation,
// not against a restaurants table.
type Donation struct {
	ID              string         `json:"id"              db:"id"`
	Title           string         `json:"title"           db:"title"`
	FoodType        string         `json:"foodType"        db:"food_type"`
	Quantity        string         `json:"quantity"        db:"quantity"`
	PickupTime      string         `json:"pickupTime"      db:"pickup_time"`
	RestaurantName  string         `json:"restaurantName"  db:"restaurant_name"`
	RestaurantEmail string         `json:"restaurantEmail" db:"restaurant_email"`
	Location        string         `json:"location"        db:"location"`
	Image           string         `json:"image"           db:"image"`
	Status          DonationStatus `json:"status"          db:"status"`
	CreatedAt       time.Time      `json:"createdAt"       db:"created_at"`
}
