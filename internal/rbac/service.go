package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/shared"
)

// Domain errors surfaced by the RBAC service.
var (
	ErrRoleExists       = httpx.Classify(httpx.ErrDuplicate, "Role already exists")
	ErrPermissionExists = httpx.Classify(httpx.ErrDuplicate, "Permission already exists")
	ErrRoleNotFound     = httpx.Classify(httpx.ErrNotFound, "Role not found")
)

// Service is the authorization engine plus role/permission management.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authorize decides whether the caller may perform an operation guarded by
// the named permission.
//
// Holders of the super_admin role are allowed unconditionally, without
// consulting the permission table at all; an unknown permission name passes
// for them. Everyone else is allowed iff the name is in the union of
// permissions granted through their roles, re-read from the store on every
// call so role changes take effect immediately.
func (s *Service) Authorize(ctx context.Context, ident *shared.Identity, permission string) (bool, error) {
	if ident == nil {
		return false, nil
	}
	if ident.HasRole(RoleSuperAdmin) {
		return true, nil
	}
	granted, err := s.repo.EffectivePermissions(ctx, ident.ID)
	if err != nil {
		return false, err
	}
	for _, name := range granted {
		if name == permission {
			return true, nil
		}
	}
	return false, nil
}

// EffectivePermissions returns the caller's granted permission rows.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]Permission, error) {
	return s.repo.EffectivePermissionDetails(ctx, userID)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, httpx.Classify(httpx.ErrValidation, "role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, httpx.Classify(httpx.ErrValidation, "permission name required")
	}
	return s.repo.CreatePermission(ctx, name, strings.TrimSpace(description))
}

// SetRoleByID replaces the user's role set with the single role identified
// by id.
func (s *Service) SetRoleByID(ctx context.Context, userID, roleID int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	if err := s.repo.ReplaceRoles(ctx, userID, role.ID); err != nil {
		return Role{}, err
	}
	return role, nil
}

// SetRoleByName replaces the user's role set with the single named role.
func (s *Service) SetRoleByName(ctx context.Context, userID int64, roleName string) (Role, error) {
	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	if err := s.repo.ReplaceRoles(ctx, userID, role.ID); err != nil {
		return Role{}, err
	}
	return role, nil
}

// RoleNamesForUser returns the user's role names ordered by role id.
func (s *Service) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.RoleNamesForUser(ctx, userID)
}
