package rbac

import "time"

// Well-known role names. RoleSuperAdmin and RoleAdmin are sentinels checked
// by name in the decision logic, not data-driven policy.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Default permission names provisioned at bootstrap.
const (
	PermCreate = "CREATE"
	PermRead   = "READ"
	PermUpdate = "UPDATE"
	PermDelete = "DELETE"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

// RolePermission ties a permission to a role.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}
