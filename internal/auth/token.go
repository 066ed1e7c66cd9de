// Package auth issues and verifies admin session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nova-jack/novafusion/types"
)

const (
	Issuer   = "novafusion-admin"
	Audience = "novafusion-admin-panel"

	DefaultTokenTTL = 8 * time.Hour
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Claims is the signed claim-set of an admin session token.
type Claims struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  types.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService fails with ErrMissingSecret when secret is blank.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for user.
func (s *TokenService) Generate(user types.AdminUser) (string, error) {
	if user.ID == "" || user.Email == "" {
		return "", errors.New("invalid user data for token generation")
	}

	now := s.now()
	claims := Claims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify returns the identity carried by token. Malformed, expired,
// mis-signed and foreign tokens all yield false.
func (s *TokenService) Verify(token string) (types.AdminUser, bool) {
	if strings.TrimSpace(token) == "" {
		return types.AdminUser{}, false
	}

	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return types.AdminUser{}, false
	}
	if claims.ID == "" || claims.Email == "" || !claims.Role.Valid() {
		return types.AdminUser{}, false
	}

	return types.AdminUser{
		ID:    claims.ID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, true
}
