package users

import (
	"context"
	"errors"
	"log/slog"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/rbac"
	"github.com/docvault/docvault/internal/shared"
)

// Domain errors surfaced by the users service.
var (
	ErrUserExists   = httpx.Classify(httpx.ErrDuplicate, "User already exists")
	ErrUserNotFound = httpx.Classify(httpx.ErrNotFound, "User not found")
	ErrSelfDelete   = httpx.Classify(httpx.ErrValidation, "Cannot delete your own account")
)

// Service handles user management business logic.
type Service struct {
	repo   RepositoryPort
	rbac   *rbac.Service
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, rbacService *rbac.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, rbac: rbacService, logger: logger}
}

// Register creates a new user and assigns the default "user" role. The
// account is still created when the default role is missing, matching the
// pre-provisioning bootstrap window.
func (s *Service) Register(ctx context.Context, username, email, password string) (User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, username, email, hash)
	if err != nil {
		return User{}, err
	}
	role, err := s.rbac.SetRoleByName(ctx, user.ID, rbac.RoleUser)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			return User{}, err
		}
		s.logger.Warn("default role missing, user created without role",
			slog.String("username", username))
		return user, nil
	}
	user.Roles = []string{role.Name}
	return user, nil
}

// List returns all users with their roles.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Permissions returns the effective permission set of a user.
func (s *Service) Permissions(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	return s.rbac.EffectivePermissions(ctx, userID)
}

// SetRoleByID replaces the target user's roles with the role identified by
// id and returns both for messaging.
func (s *Service) SetRoleByID(ctx context.Context, targetID, roleID int64) (User, rbac.Role, error) {
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return User{}, rbac.Role{}, err
	}
	role, err := s.rbac.SetRoleByID(ctx, targetID, roleID)
	if err != nil {
		return User{}, rbac.Role{}, err
	}
	return user, role, nil
}

// SetRoleByName replaces the target user's roles with the named role.
func (s *Service) SetRoleByName(ctx context.Context, targetID int64, roleName string) (User, rbac.Role, error) {
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return User{}, rbac.Role{}, err
	}
	role, err := s.rbac.SetRoleByName(ctx, targetID, roleName)
	if err != nil {
		return User{}, rbac.Role{}, err
	}
	return user, role, nil
}

// Delete removes a user. Callers cannot delete their own account.
func (s *Service) Delete(ctx context.Context, caller *shared.Identity, targetID int64) (User, error) {
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	if caller != nil && caller.ID == targetID {
		return User{}, ErrSelfDelete
	}
	if err := s.repo.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}
