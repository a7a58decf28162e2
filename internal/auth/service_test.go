package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/shared"
)

type memoryAuthRepo struct {
	users map[string]*User
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{users: make(map[string]*User)}
}

func (r *memoryAuthRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memoryAuthRepo) add(t *testing.T, username, password string, roles ...string) {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	r.users[username] = &User{
		ID:           int64(len(r.users) + 1),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Roles:        roles,
	}
}

func newTestService(t *testing.T, repo Repository, ttl time.Duration) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tokens := NewTokenManager("test-secret", ttl, NewRedisRevocations(client))
	return NewService(repo, tokens)
}

func TestPasswordTruncatedAt72Bytes(t *testing.T) {
	long := strings.Repeat("a", 80)
	hash, err := HashPassword(long)
	require.NoError(t, err)

	// Everything past byte 72 is ignored on both paths.
	require.True(t, VerifyPassword(long, hash))
	require.True(t, VerifyPassword(strings.Repeat("a", 72)+"different-tail", hash))
	require.False(t, VerifyPassword(strings.Repeat("a", 71)+"b", hash))
}

func TestLogin(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123", "user")
	svc := newTestService(t, repo, time.Hour)

	token, err := svc.Login(context.Background(), "user1", "user123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = svc.Login(context.Background(), "user1", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames produce the same error as bad passwords.
	_, err = svc.Login(context.Background(), "ghost", "user123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveRoundTrip(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "admin1", "admin123", "admin")
	svc := newTestService(t, repo, time.Hour)

	token, err := svc.Login(context.Background(), "admin1", "admin123")
	require.NoError(t, err)

	user, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "admin1", user.Username)
	require.Equal(t, []string{"admin"}, user.Roles)

	ident := user.Identity()
	require.True(t, ident.HasRole("admin"))
	require.False(t, ident.HasRole("super_admin"))
}

func TestResolveRejectsGarbage(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	svc := newTestService(t, repo, time.Hour)

	_, err := svc.Resolve(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	svc := newTestService(t, repo, -time.Minute)

	token, err := svc.tokens.Mint("user1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRejectsForeignSignature(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	svc := newTestService(t, repo, time.Hour)

	foreign := NewTokenManager("other-secret", time.Hour, nil)
	token, err := foreign.Mint("user1")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveDeletedUser(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	svc := newTestService(t, repo, time.Hour)

	token, err := svc.Login(context.Background(), "user1", "user123")
	require.NoError(t, err)

	delete(repo.users, "user1")

	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrUserNotFound)
}

type brokenRevocations struct{ err error }

func (s brokenRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.err
}

func (s brokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return false, s.err
}

func TestResolveRevocationStoreOutage(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	storeErr := errors.New("connection refused")
	tokens := NewTokenManager("test-secret", time.Hour, brokenRevocations{err: storeErr})
	svc := NewService(repo, tokens)

	token, err := svc.Login(context.Background(), "user1", "user123")
	require.NoError(t, err)

	// The store being down says nothing about the token; the outage must
	// not masquerade as a 401-class error.
	_, err = svc.Resolve(context.Background(), token)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, storeErr)

	err = svc.Logout(context.Background(), token)
	require.NotErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, storeErr)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newMemoryAuthRepo()
	repo.add(t, "user1", "user123")
	svc := newTestService(t, repo, time.Hour)

	token, err := svc.Login(context.Background(), "user1", "user123")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.Resolve(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Revoking twice is an error because the token no longer parses.
	require.ErrorIs(t, svc.Logout(context.Background(), token), ErrInvalidToken)
}
