package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nova-jack/novafusion/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = types.AdminUser{
	ID:    "8b0f7d52-6c4e-4a53-9d0c-2f5ab8a4b6c1",
	Email: "admin@x.com",
	Name:  "Site Admin",
	Role:  types.RoleSuperAdmin,
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("   ", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Generate(testUser)
	require.NoError(t, err)

	got, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, testUser, got)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewTokenService("test-secret", 8*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	token, err := svc.Generate(testUser)
	require.NoError(t, err)

	clock.Advance(7 * time.Hour)
	_, ok := svc.Verify(token)
	assert.True(t, ok, "token should still be valid before expiry")

	clock.Advance(2 * time.Hour)
	_, ok = svc.Verify(token)
	assert.False(t, ok, "token should be rejected after expiry")
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Generate(testUser)
	require.NoError(t, err)

	now := time.Now()
	sign := func(claims Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	wrongAudience := base
	wrongAudience.Audience = jwt.ClaimStrings{"someone-else"}
	wrongIssuer := base
	wrongIssuer.Issuer = "someone-else"
	noExpiry := base
	noExpiry.ExpiresAt = nil

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not.a.token",
		"wrong signature": foreign,
		"wrong audience":  sign(Claims{ID: "1", Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: wrongAudience}, jwt.SigningMethodHS256, []byte("test-secret")),
		"wrong issuer":    sign(Claims{ID: "1", Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: wrongIssuer}, jwt.SigningMethodHS256, []byte("test-secret")),
		"no expiry":       sign(Claims{ID: "1", Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: noExpiry}, jwt.SigningMethodHS256, []byte("test-secret")),
		"missing id":      sign(Claims{Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: base}, jwt.SigningMethodHS256, []byte("test-secret")),
		"unknown role":    sign(Claims{ID: "1", Email: "a@b.co", Role: "EDITOR", RegisteredClaims: base}, jwt.SigningMethodHS256, []byte("test-secret")),
		"hs512":           sign(Claims{ID: "1", Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: base}, jwt.SigningMethodHS512, []byte("test-secret")),
		"alg none":        sign(Claims{ID: "1", Email: "a@b.co", Role: types.RoleAdmin, RegisteredClaims: base}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := svc.Verify(token)
			assert.False(t, ok)
		})
	}
}

func TestTokenService_GenerateRejectsIncompleteUser(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Generate(types.AdminUser{Email: "admin@x.com"})
	assert.Error(t, err)
}
