package auth

import "time"

// User represents an authenticated user account with its roles eagerly
// loaded at resolve time.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Roles        []string
}
