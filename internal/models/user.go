package models

import "time"

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Role         string    `json:"role"`
	AccessToken  *string   `json:"-"` // Encrypted aggregation access token
	ItemID       *string   `json:"-"` // Aggregation item identifier
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Linked reports whether the user has a stored aggregation access token.
func (u *User) Linked() bool {
	return u.AccessToken != nil && *u.AccessToken != ""
}
