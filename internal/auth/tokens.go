package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenInvalid covers malformed, expired, unverifiable or revoked tokens.
var ErrTokenInvalid = errors.New("auth: invalid token")

// Claims are the registered claims carried by an access token. Subject is
// the username.
type Claims struct {
	jwt.RegisteredClaims
}

// RevocationStore remembers revoked token IDs until their natural expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenManager mints and parses HS256 access tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
}

// NewTokenManager constructs a TokenManager. revoked may be nil, in which
// case logout revocation is disabled.
func NewTokenManager(secret string, ttl time.Duration, revoked RevocationStore) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, revoked: revoked}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Mint issues a signed token whose subject is the username.
func (m *TokenManager) Mint(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims. Revoked tokens fail with
// ErrTokenInvalid just like malformed ones.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if m.revoked != nil && claims.ID != "" {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("auth: revocation check: %w", err)
		}
		if revoked {
			return nil, ErrTokenInvalid
		}
	}
	return &claims, nil
}

// Revoke marks the token's ID as revoked until the token would have expired.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.revoked == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := m.ttl
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return m.revoked.Revoke(ctx, claims.ID, ttl)
}

// RedisRevocations stores revoked token IDs in Redis.
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations constructs a RevocationStore backed by Redis.
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}

// Revoke stores the token ID with the remaining token lifetime.
func (s *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return s.client.Set(ctx, revocationKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether the token ID was revoked.
func (s *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ RevocationStore = (*RedisRevocations)(nil)
