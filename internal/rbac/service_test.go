package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/shared"
)

type memoryRBACRepo struct {
	roles      map[int64]Role
	perms      map[int64]Permission
	userRoles  map[int64][]int64
	rolePerms  map[int64][]int64
	nextRoleID int64
	nextPermID int64
}

func newMemoryRBACRepo() *memoryRBACRepo {
	return &memoryRBACRepo{
		roles:     make(map[int64]Role),
		perms:     make(map[int64]Permission),
		userRoles: make(map[int64][]int64),
		rolePerms: make(map[int64][]int64),
	}
}

func (r *memoryRBACRepo) addRole(name string) Role {
	r.nextRoleID++
	role := Role{ID: r.nextRoleID, Name: name}
	r.roles[role.ID] = role
	return role
}

func (r *memoryRBACRepo) addPermission(name string) Permission {
	r.nextPermID++
	p := Permission{ID: r.nextPermID, Name: name}
	r.perms[p.ID] = p
	return p
}

func (r *memoryRBACRepo) grant(roleID, permID int64) {
	r.rolePerms[roleID] = append(r.rolePerms[roleID], permID)
}

func (r *memoryRBACRepo) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, roleID := range r.userRoles[userID] {
		for _, permID := range r.rolePerms[roleID] {
			name := r.perms[permID].Name
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (r *memoryRBACRepo) EffectivePermissionDetails(ctx context.Context, userID int64) ([]Permission, error) {
	seen := map[int64]bool{}
	var out []Permission
	for _, roleID := range r.userRoles[userID] {
		for _, permID := range r.rolePerms[roleID] {
			if !seen[permID] {
				seen[permID] = true
				out = append(out, r.perms[permID])
			}
		}
	}
	return out, nil
}

func (r *memoryRBACRepo) ListRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRBACRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRBACRepo) GetRoleByName(ctx context.Context, name string) (Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (r *memoryRBACRepo) CreateRole(ctx context.Context, name, description string) (Role, error) {
	if _, err := r.GetRoleByName(ctx, name); err == nil {
		return Role{}, ErrRoleExists
	}
	role := r.addRole(name)
	role.Description = description
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRBACRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	var out []Permission
	for _, p := range r.perms {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRBACRepo) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	for _, existing := range r.perms {
		if existing.Name == name {
			return Permission{}, ErrPermissionExists
		}
	}
	p := r.addPermission(name)
	p.Description = description
	r.perms[p.ID] = p
	return p, nil
}

func (r *memoryRBACRepo) ReplaceRoles(ctx context.Context, userID, roleID int64) error {
	r.userRoles[userID] = []int64{roleID}
	return nil
}

func (r *memoryRBACRepo) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	for _, roleID := range r.userRoles[userID] {
		names = append(names, r.roles[roleID].Name)
	}
	return names, nil
}

var _ RepositoryPort = (*memoryRBACRepo)(nil)

func TestAuthorizeNilIdentity(t *testing.T) {
	svc := NewService(newMemoryRBACRepo())

	ok, err := svc.Authorize(context.Background(), nil, PermRead)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizeSuperAdminBypass(t *testing.T) {
	svc := NewService(newMemoryRBACRepo())
	ident := &shared.Identity{ID: 1, Username: "superadmin1", Roles: []string{RoleSuperAdmin}}

	for _, perm := range []string{PermCreate, PermRead, PermUpdate, PermDelete} {
		ok, err := svc.Authorize(context.Background(), ident, perm)
		require.NoError(t, err)
		require.True(t, ok, perm)
	}

	// The bypass never consults the permission table, so names that were
	// never registered still pass.
	ok, err := svc.Authorize(context.Background(), ident, "NO_SUCH_PERMISSION")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthorizeUnionOfRolePermissions(t *testing.T) {
	repo := newMemoryRBACRepo()
	reader := repo.addRole("reader")
	writer := repo.addRole("writer")
	read := repo.addPermission(PermRead)
	create := repo.addPermission(PermCreate)
	repo.grant(reader.ID, read.ID)
	repo.grant(writer.ID, create.ID)
	repo.grant(writer.ID, read.ID)
	repo.userRoles[7] = []int64{reader.ID, writer.ID}

	svc := NewService(repo)
	ident := &shared.Identity{ID: 7, Username: "u", Roles: []string{"reader", "writer"}}

	ok, err := svc.Authorize(context.Background(), ident, PermRead)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Authorize(context.Background(), ident, PermCreate)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Authorize(context.Background(), ident, PermDelete)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizeReadsFreshPerCall(t *testing.T) {
	repo := newMemoryRBACRepo()
	editor := repo.addRole("editor")
	update := repo.addPermission(PermUpdate)
	repo.userRoles[3] = []int64{editor.ID}

	svc := NewService(repo)
	ident := &shared.Identity{ID: 3, Username: "u", Roles: []string{"editor"}}

	ok, err := svc.Authorize(context.Background(), ident, PermUpdate)
	require.NoError(t, err)
	require.False(t, ok)

	// A grant made after the first decision is visible on the next call.
	repo.grant(editor.ID, update.ID)
	ok, err = svc.Authorize(context.Background(), ident, PermUpdate)
	require.NoError(t, err)
	require.True(t, ok)

	// And revocations take effect immediately too.
	repo.rolePerms[editor.ID] = nil
	ok, err = svc.Authorize(context.Background(), ident, PermUpdate)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateRoleDuplicate(t *testing.T) {
	svc := NewService(newMemoryRBACRepo())

	_, err := svc.CreateRole(context.Background(), "auditor", "")
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), "auditor", "")
	require.ErrorIs(t, err, ErrRoleExists)
}

func TestSetRoleByNameUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRBACRepo())

	_, err := svc.SetRoleByName(context.Background(), 1, "ghost")
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestSetRoleByIDReplacesExistingRoles(t *testing.T) {
	repo := newMemoryRBACRepo()
	old := repo.addRole("user")
	next := repo.addRole("admin")
	repo.userRoles[5] = []int64{old.ID}

	svc := NewService(repo)
	role, err := svc.SetRoleByID(context.Background(), 5, next.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", role.Name)

	names, err := svc.RoleNamesForUser(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, names)
}

func TestRequireMiddleware(t *testing.T) {
	repo := newMemoryRBACRepo()
	reader := repo.addRole("reader")
	read := repo.addPermission(PermRead)
	repo.grant(reader.ID, read.ID)
	repo.userRoles[1] = []int64{reader.ID}

	svc := NewService(repo)
	mw := Middleware{Service: svc}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guard := mw.Require(PermDelete)(next)

	t.Run("no identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("denied", func(t *testing.T) {
		ident := &shared.Identity{ID: 1, Username: "u", Roles: []string{"reader"}}
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), ident))
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Permission 'DELETE' required")
	})

	t.Run("super admin passes", func(t *testing.T) {
		ident := &shared.Identity{ID: 2, Username: "sa", Roles: []string{RoleSuperAdmin}}
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), ident))
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
