package auth

import (
	"context"
	"errors"

	"github.com/docvault/docvault/internal/platform/httpx"
	"github.com/docvault/docvault/internal/shared"
)

// Resolution errors. All three map to 401; the login error deliberately
// does not reveal whether the username or the password was wrong.
var (
	ErrInvalidCredentials = httpx.Classify(httpx.ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken       = httpx.Classify(httpx.ErrUnauthorized, "Invalid or expired token")
	ErrUserNotFound       = httpx.Classify(httpx.ErrUnauthorized, "User no longer exists")
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates username/password credentials and mints an access token
// whose subject claim is the username.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Mint(user.Username)
}

// Resolve parses a bearer token back into the user it was issued for, with
// role assignments eagerly loaded. A user deleted after issuance fails with
// ErrUserNotFound. A revocation-store outage is not a verdict on the token
// and propagates as-is.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	user, err := s.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the token so subsequent resolves fail.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return ErrInvalidToken
		}
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}

// Identity converts a resolved user into the request-scoped identity.
func (u *User) Identity() *shared.Identity {
	return &shared.Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
	}
}
