package models

import "time"

// User captures client-safe fields for an authenticated identity.
// It never carries password material.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName returns the best human-readable label for the user.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != nil && *u.Username != "":
		return *u.Username
	default:
		return u.Email
	}
}

// Credential pairs a user with the stored password hash. Only the
// authenticator consumes it.
type Credential struct {
	User
	PasswordHash string
}

// NewUser is the insert payload for a credential store.
type NewUser struct {
	Email        string
	Username     *string
	FirstName    string
	LastName     string
	PasswordHash string
}
