package users

import "time"

// User represents a user account for management, with role names attached.
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Roles     []string
}
