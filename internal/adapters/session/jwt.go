// Package session issues and verifies the HS256 session tokens that stand in
// for the upstream identity provider.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/kanban/internal/ports/primary"
)

// Issuer is the iss claim of every token.
const Issuer = "kanban"

// DefaultTTL is used when the configured lifetime is zero.
const DefaultTTL = 24 * time.Hour

var (
	// ErrMissingSecret is returned when the signing secret is empty.
	ErrMissingSecret = errors.New("session secret is not configured")
	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims carries the cached profile alongside the registered claims.
type Claims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. now is optional.
func NewManager(secret string, ttl time.Duration, now func() time.Time) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue mints a token for the identity.
func (m *Manager) Issue(identity primary.SessionIdentity) (string, error) {
	if identity.UserID == "" {
		return "", fmt.Errorf("failed to issue session token: user id is required")
	}
	now := m.now()
	claims := Claims{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// identity the token was issued for.
func (m *Manager) Verify(tokenString string) (*primary.SessionIdentity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &primary.SessionIdentity{
		UserID:      claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
	}, nil
}
