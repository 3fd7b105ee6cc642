// Package token issues and verifies the bearer tokens that authenticate
// API requests. Tokens are HS256-signed JWTs carrying the user ID; logout
// revokes a token by storing its ID in Valkey until the token would have
// expired anyway.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 7 * 24 * time.Hour

	// Issuer is written to and required in every token.
	Issuer = "linksaver"

	// keyPrefix namespaces revoked token IDs in Valkey.
	keyPrefix = "revoked:"
)

// ErrInvalid is returned for any token that fails verification: bad
// signature, wrong algorithm, expired, revoked or malformed.
var ErrInvalid = errors.New("invalid or expired token")

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Manager signs and verifies tokens. The Valkey client is optional; without
// it tokens cannot be revoked and logout only discards them client-side.
type Manager struct {
	secret []byte
	ttl    time.Duration
	client *redis.Client
	now    func() time.Time
}

// NewManager creates a token manager. A zero ttl uses DefaultTTL.
func NewManager(secret string, ttl time.Duration, client *redis.Client) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		client: client,
		now:    time.Now,
	}
}

// TTL returns the lifetime of newly issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for the user.
func (m *Manager) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and returns its claims. Revoked tokens are
// rejected when a Valkey client is configured.
func (m *Manager) Parse(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalid)
	}

	revoked, err := m.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalid)
	}
	return claims, nil
}

// Revoke blacklists the token until its own expiry.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.client == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := m.client.Set(ctx, keyPrefix+claims.ID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token ID has been revoked.
func (m *Manager) IsRevoked(ctx context.Context, id string) (bool, error) {
	if m.client == nil || id == "" {
		return false, nil
	}
	n, err := m.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}
