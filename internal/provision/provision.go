// Package provision seeds the default roles, permissions and demo accounts.
// Every step is guarded by an existence check so the routine can run at
// every startup or from the seed CLI without creating duplicates.
package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/rbac"
)

// Store is the minimal persistence surface provisioning needs.
type Store interface {
	EnsureRole(ctx context.Context, name, description string) (int64, error)
	EnsurePermission(ctx context.Context, name, description string) (int64, error)
	EnsureGrant(ctx context.Context, roleID, permissionID int64) error
	// EnsureUser reports whether the user was created by this call.
	EnsureUser(ctx context.Context, username, email, passwordHash string) (int64, bool, error)
	EnsureUserRole(ctx context.Context, userID, roleID int64) error
}

type demoUser struct {
	username string
	email    string
	password string
	role     string
}

// Demo accounts mirror the documented bootstrap credentials.
var demoUsers = []demoUser{
	{"user1", "user1@example.com", "user123", rbac.RoleUser},
	{"admin1", "admin1@example.com", "admin123", rbac.RoleAdmin},
	{"superadmin1", "superadmin1@example.com", "super123", rbac.RoleSuperAdmin},
}

var defaultGrants = map[string][]string{
	rbac.RoleUser:       {rbac.PermRead},
	rbac.RoleAdmin:      {rbac.PermCreate, rbac.PermRead, rbac.PermUpdate},
	rbac.RoleSuperAdmin: {rbac.PermCreate, rbac.PermRead, rbac.PermUpdate, rbac.PermDelete},
}

// Run seeds default roles, permissions, grants and demo users. Idempotent.
func Run(ctx context.Context, store Store, logger *slog.Logger) error {
	// Seed in a fixed order so role ids are stable on a fresh database;
	// "first role" display picks rely on the lowest id.
	roles := map[string]int64{}
	for _, r := range []struct{ name, description string }{
		{rbac.RoleUser, "Basic user"},
		{rbac.RoleAdmin, "Admin user"},
		{rbac.RoleSuperAdmin, "Super admin"},
	} {
		id, err := store.EnsureRole(ctx, r.name, r.description)
		if err != nil {
			return fmt.Errorf("provision: role %s: %w", r.name, err)
		}
		roles[r.name] = id
	}

	perms := map[string]int64{}
	for _, p := range []struct{ name, description string }{
		{rbac.PermCreate, "Create PDFs"},
		{rbac.PermRead, "Read PDFs"},
		{rbac.PermUpdate, "Update PDFs"},
		{rbac.PermDelete, "Delete PDFs"},
	} {
		id, err := store.EnsurePermission(ctx, p.name, p.description)
		if err != nil {
			return fmt.Errorf("provision: permission %s: %w", p.name, err)
		}
		perms[p.name] = id
	}

	for role, grants := range defaultGrants {
		for _, perm := range grants {
			if err := store.EnsureGrant(ctx, roles[role], perms[perm]); err != nil {
				return fmt.Errorf("provision: grant %s to %s: %w", perm, role, err)
			}
		}
	}

	for _, u := range demoUsers {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("provision: hash password for %s: %w", u.username, err)
		}
		userID, created, err := store.EnsureUser(ctx, u.username, u.email, hash)
		if err != nil {
			return fmt.Errorf("provision: user %s: %w", u.username, err)
		}
		// Role assignment only happens when the account is first created,
		// so later role changes survive reprovisioning.
		if created {
			if err := store.EnsureUserRole(ctx, userID, roles[u.role]); err != nil {
				return fmt.Errorf("provision: assign %s to %s: %w", u.role, u.username, err)
			}
			if logger != nil {
				logger.Info("provisioned demo user",
					slog.String("username", u.username), slog.String("role", u.role))
			}
		}
	}
	return nil
}
