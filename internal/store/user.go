package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nova-jack/novafusion/types"
)

// UserRepository handles persistence for admin accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	const query = `
		SELECT id, email, name, role, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail looks up a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, email, name, role, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1`
	return r.getOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Upsert creates the user, or updates name, role and password of the
// account that already owns the email.
func (r *UserRepository) Upsert(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		now,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}
