package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nova-jack/novafusion/internal/store/memory"
	"github.com/nova-jack/novafusion/types"
)

// stubUsers lets tests inject repository failures.
type stubUsers struct {
	getByEmail func(ctx context.Context, email string) (types.User, error)
}

func (s stubUsers) GetByID(context.Context, string) (types.User, error) {
	return types.User{}, errors.New("not implemented")
}

func (s stubUsers) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.getByEmail(ctx, email)
}

func (s stubUsers) Upsert(context.Context, types.User) (types.User, error) {
	return types.User{}, errors.New("not implemented")
}

func seedAdmin(t *testing.T, db *memory.DB, email, password string, role types.Role) types.AdminUser {
	t.Helper()
	admin, err := NewUserService(db.Users, bcrypt.MinCost).CreateAdmin(context.Background(), email, "Admin", password, role)
	require.NoError(t, err)
	return admin
}

func TestAuthService_ValidateCredentials(t *testing.T) {
	db := memory.New()
	admin := seedAdmin(t, db, "owner@novafusion.test", "correct-horse", types.RoleSuperAdmin)
	svc := NewAuthService(db.Users, bcrypt.MinCost)
	ctx := context.Background()

	user, ok, err := svc.ValidateCredentials(ctx, "  Owner@NovaFusion.test ", "correct-horse")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, admin, user)

	_, ok, err = svc.ValidateCredentials(ctx, "owner@novafusion.test", "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.ValidateCredentials(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthService_UnknownEmailStillCompares(t *testing.T) {
	svc := NewAuthService(memory.New().Users, bcrypt.MinCost)

	var compared [][]byte
	svc.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.ErrMismatchedHashAndPassword
	}

	_, ok, err := svc.ValidateCredentials(context.Background(), "nobody@novafusion.test", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, compared, 1)
	assert.Equal(t, svc.dummyHash, compared[0])
}

func TestAuthService_RepositoryError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewAuthService(stubUsers{getByEmail: func(context.Context, string) (types.User, error) {
		return types.User{}, boom
	}}, bcrypt.MinCost)

	_, ok, err := svc.ValidateCredentials(context.Background(), "owner@novafusion.test", "pw")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestUserService_CreateAdmin(t *testing.T) {
	db := memory.New()
	svc := NewUserService(db.Users, bcrypt.MinCost)
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "Editor@NovaFusion.test", " Editor ", "long-enough", types.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "editor@novafusion.test", admin.Email)
	assert.Equal(t, "Editor", admin.Name)
	assert.Equal(t, types.RoleAdmin, admin.Role)

	stored, err := db.Users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", stored.PasswordHash)

	again, err := svc.CreateAdmin(ctx, "editor@novafusion.test", "Editor", "another-password", "")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.Equal(t, types.RoleSuperAdmin, again.Role)

	var verr *ValidationError
	_, err = svc.CreateAdmin(ctx, "not-an-email", "x", "long-enough", "")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.CreateAdmin(ctx, "a@b.co", "x", "short", "")
	assert.ErrorAs(t, err, &verr)
	_, err = svc.CreateAdmin(ctx, "a@b.co", "x", "long-enough", types.Role("EDITOR"))
	assert.ErrorAs(t, err, &verr)
}
