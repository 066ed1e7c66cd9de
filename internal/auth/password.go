package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 12

	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
)

// HashPassword hashes password with bcrypt at the given cost.
// A cost outside bcrypt's range falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if n > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword reports whether password matches hash. A malformed hash
// is treated as a mismatch.
func ComparePassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
