package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nova-jack/novafusion/internal/auth"
	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/types"
	"golang.org/x/crypto/bcrypt"
)

// AuthService checks admin credentials.
type AuthService struct {
	users UserRepository

	// compare is bcrypt.CompareHashAndPassword outside of tests.
	compare func(hash, password []byte) error

	// dummyHash is compared against when the email is unknown.
	dummyHash []byte
}

func NewAuthService(users UserRepository, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = auth.DefaultCost
	}
	// the error is unreachable for a cost inside bcrypt's range
	dummy, _ := bcrypt.GenerateFromPassword([]byte("novafusion-timing-guard"), bcryptCost)
	return &AuthService{
		users:     users,
		compare:   bcrypt.CompareHashAndPassword,
		dummyHash: dummy,
	}
}

// ValidateCredentials returns the public projection of the account
// matching email and password. Unknown emails still pay for one bcrypt
// comparison so both failure paths take the same time. The error is
// reserved for persistence failures.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (types.AdminUser, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return types.AdminUser{}, false, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.compare(s.dummyHash, []byte(password))
			return types.AdminUser{}, false, nil
		}
		return types.AdminUser{}, false, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.AdminUser{}, false, nil
	}
	return user.Public(), true, nil
}
