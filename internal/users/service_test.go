package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/rbac"
	"github.com/docvault/docvault/internal/shared"
)

type memoryUsersRepo struct {
	users  map[int64]User
	nextID int64
}

func newMemoryUsersRepo() *memoryUsersRepo {
	return &memoryUsersRepo{users: make(map[int64]User)}
}

func (r *memoryUsersRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return User{}, ErrUserExists
		}
	}
	r.nextID++
	user := User{ID: r.nextID, Username: username, Email: email, Roles: []string{}}
	r.users[user.ID] = user
	return user, nil
}

func (r *memoryUsersRepo) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for id := int64(1); id <= r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUsersRepo) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUsersRepo) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

var _ RepositoryPort = (*memoryUsersRepo)(nil)

// memoryRoleStore backs an rbac.Service with just enough behavior for the
// user flows under test.
type memoryRoleStore struct {
	roles     map[int64]rbac.Role
	userRoles map[int64][]int64
	nextID    int64
}

func newMemoryRoleStore() *memoryRoleStore {
	return &memoryRoleStore{
		roles:     make(map[int64]rbac.Role),
		userRoles: make(map[int64][]int64),
	}
}

func (r *memoryRoleStore) addRole(name string) rbac.Role {
	r.nextID++
	role := rbac.Role{ID: r.nextID, Name: name}
	r.roles[role.ID] = role
	return role
}

func (r *memoryRoleStore) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

func (r *memoryRoleStore) EffectivePermissionDetails(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	return nil, nil
}

func (r *memoryRoleStore) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRoleStore) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRoleStore) GetRoleByName(ctx context.Context, name string) (rbac.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return rbac.Role{}, shared.ErrNotFound
}

func (r *memoryRoleStore) CreateRole(ctx context.Context, name, description string) (rbac.Role, error) {
	return r.addRole(name), nil
}

func (r *memoryRoleStore) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (r *memoryRoleStore) CreatePermission(ctx context.Context, name, description string) (rbac.Permission, error) {
	return rbac.Permission{}, nil
}

func (r *memoryRoleStore) ReplaceRoles(ctx context.Context, userID, roleID int64) error {
	r.userRoles[userID] = []int64{roleID}
	return nil
}

func (r *memoryRoleStore) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	for _, roleID := range r.userRoles[userID] {
		names = append(names, r.roles[roleID].Name)
	}
	return names, nil
}

var _ rbac.RepositoryPort = (*memoryRoleStore)(nil)

func newTestUsersService(t *testing.T) (*Service, *memoryUsersRepo, *memoryRoleStore) {
	t.Helper()
	repo := newMemoryUsersRepo()
	roleStore := newMemoryRoleStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, rbac.NewService(roleStore), logger), repo, roleStore
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	svc, _, roleStore := newTestUsersService(t)
	roleStore.addRole(rbac.RoleUser)

	user, err := svc.Register(context.Background(), "user1", "user1@example.com", "user123")
	require.NoError(t, err)
	require.Equal(t, "user1", user.Username)
	require.Equal(t, []string{rbac.RoleUser}, user.Roles)
}

func TestRegisterWithoutDefaultRole(t *testing.T) {
	svc, repo, _ := newTestUsersService(t)

	// No roles provisioned yet. The account is still created, role-less.
	user, err := svc.Register(context.Background(), "early", "early@example.com", "pw")
	require.NoError(t, err)
	require.Empty(t, user.Roles)
	require.Contains(t, repo.users, user.ID)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, roleStore := newTestUsersService(t)
	roleStore.addRole(rbac.RoleUser)

	_, err := svc.Register(context.Background(), "user1", "user1@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user1", "other@example.com", "pw")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestGetUnknownUser(t *testing.T) {
	svc, _, _ := newTestUsersService(t)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetRoleByName(t *testing.T) {
	svc, _, roleStore := newTestUsersService(t)
	roleStore.addRole(rbac.RoleUser)
	roleStore.addRole(rbac.RoleAdmin)

	user, err := svc.Register(context.Background(), "user1", "user1@example.com", "pw")
	require.NoError(t, err)

	_, role, err := svc.SetRoleByName(context.Background(), user.ID, rbac.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleAdmin, role.Name)

	names, err := roleStore.RoleNamesForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{rbac.RoleAdmin}, names)

	// Unknown role names and unknown users both fail cleanly.
	_, _, err = svc.SetRoleByName(context.Background(), user.ID, "ghost")
	require.ErrorIs(t, err, rbac.ErrRoleNotFound)

	_, _, err = svc.SetRoleByName(context.Background(), 404, rbac.RoleAdmin)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo, roleStore := newTestUsersService(t)
	roleStore.addRole(rbac.RoleUser)

	target, err := svc.Register(context.Background(), "user1", "user1@example.com", "pw")
	require.NoError(t, err)

	caller := &shared.Identity{ID: 99, Username: "superadmin1", Roles: []string{rbac.RoleSuperAdmin}}
	deleted, err := svc.Delete(context.Background(), caller, target.ID)
	require.NoError(t, err)
	require.Equal(t, target.ID, deleted.ID)
	require.NotContains(t, repo.users, target.ID)

	_, err = svc.Delete(context.Background(), caller, target.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteSelfRejected(t *testing.T) {
	svc, repo, roleStore := newTestUsersService(t)
	roleStore.addRole(rbac.RoleUser)

	user, err := svc.Register(context.Background(), "superadmin1", "sa@example.com", "pw")
	require.NoError(t, err)

	caller := &shared.Identity{ID: user.ID, Username: user.Username, Roles: []string{rbac.RoleSuperAdmin}}
	_, err = svc.Delete(context.Background(), caller, user.ID)
	require.ErrorIs(t, err, ErrSelfDelete)
	require.Contains(t, repo.users, user.ID)
}
