package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nova-jack/novafusion/internal/auth"
	"github.com/nova-jack/novafusion/internal/util"
	"github.com/nova-jack/novafusion/types"
)

// UserRepository defines persistence operations for admin accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Upsert(ctx context.Context, user types.User) (types.User, error)
}

// UserService manages admin accounts.
type UserService struct {
	repo UserRepository
	cost int
}

func NewUserService(repo UserRepository, bcryptCost int) *UserService {
	return &UserService{repo: repo, cost: bcryptCost}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateAdmin creates the account, or resets name, role and password of
// the account that already uses email.
func (s *UserService) CreateAdmin(ctx context.Context, email, name, password string, role types.Role) (types.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if !util.IsValidEmail(email) {
		return types.AdminUser{}, invalid("Invalid email address")
	}
	if name == "" {
		return types.AdminUser{}, invalid("Name is required")
	}
	if role == "" {
		role = types.RoleSuperAdmin
	}
	if !role.Valid() {
		return types.AdminUser{}, invalid("Invalid role %q", role)
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			return types.AdminUser{}, &ValidationError{Message: err.Error()}
		}
		return types.AdminUser{}, err
	}

	user, err := s.repo.Upsert(ctx, types.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return types.AdminUser{}, err
	}
	return user.Public(), nil
}
