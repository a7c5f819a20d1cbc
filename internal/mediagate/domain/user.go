package domain

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string  // argon2id PHC string
	Scope        string  // space-delimited scopes granted at login
	TOTPSecret   *string // base32; nil when the second factor is off
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TOTPEnabled reports whether login requires a one-time code.
func (u User) TOTPEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}
