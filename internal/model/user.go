// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Role is the authorization level attached to a user account.
//
// WHY A NAMED STRING TYPE?
// The roles are stored as plain strings in the database and in JSON, but a
// named type plus constants means handlers and middleware can't pass an
// arbitrary string where a role is expected without it being visible in review.
type Role string

const (
	RoleUser       Role = "user"
	RoleCharity    Role = "charity"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleCharity, RoleRestaurant, RoleAdmin:
		return true
	}
	return false
}

// User represents an account, created on first login and never deleted.
//
// The email is the primary key — the upstream identity provider asserts it,
// and every ownership check in the API compares against it. The role is
// mutated only by admin endpoints or an approved charity role request; it is
// deliberately NOT carried as an authorization claim in the JWT (the token
// asserts identity only, the live role is re-read per request).
type User struct {
	Email     string    `json:"email"     db:"email"`
	Name      string    `json:"name"      db:"name"`
	PhotoURL  string    `json:"photoURL"  db:"photo_url"`
	Role      Role      `json:"role"      db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	LastLogIn time.Time `json:"lastLogIn" db:"last_log_in"`
}
