package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/auth/jwt"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*service.AuthService, *jwt.Manager, *memDB) {
	t.Helper()
	db := newMemDB()
	m := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "pharmastock",
	})
	return service.NewAuthService(fakeUsers{db}, m, logger.Nop()), m, db
}

func TestAuth_Login(t *testing.T) {
	auth, m, db := newAuth(t)
	ctx := context.Background()

	user, err := auth.CreateUser(ctx, "alice", "s3cret!", permissions.RoleCashier)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	resp, err := auth.Login(ctx, &service.LoginRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := m.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, permissions.RoleCashier, claims.Role)
	assert.True(t, permissions.HasPermission(claims.Permissions, permissions.SalesCreate))
	assert.False(t, permissions.HasPermission(claims.Permissions, permissions.StoresWrite))

	stored, err := fakeUsers{db}.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuth_LoginFailuresLookAlike(t *testing.T) {
	auth, _, db := newAuth(t)
	ctx := context.Background()

	_, err := auth.CreateUser(ctx, "bob", "right", permissions.RolePharmacist)
	require.NoError(t, err)
	inactive, err := auth.CreateUser(ctx, "carol", "right", permissions.RolePharmacist)
	require.NoError(t, err)
	db.users[inactive.ID].IsActive = false

	for _, req := range []service.LoginRequest{
		{Username: "bob", Password: "wrong"},
		{Username: "nobody", Password: "right"},
		{Username: "carol", Password: "right"},
	} {
		_, err := auth.Login(ctx, &req)
		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr), req.Username)
		assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code, req.Username)
	}
}

func TestAuth_Refresh(t *testing.T) {
	auth, m, db := newAuth(t)
	ctx := context.Background()

	user, err := auth.CreateUser(ctx, "dave", "pw", permissions.RoleAdmin)
	require.NoError(t, err)
	resp, err := auth.Login(ctx, &service.LoginRequest{Username: "dave", Password: "pw"})
	require.NoError(t, err)

	pair, err := auth.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	// access tokens are not accepted as refresh tokens
	_, err = auth.Refresh(ctx, resp.AccessToken)
	assert.Error(t, err)

	db.users[user.ID].IsActive = false
	_, err = auth.Refresh(ctx, resp.RefreshToken)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TOKEN_INVALID", appErr.Code)
}

func TestAuth_CreateUser(t *testing.T) {
	auth, _, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.CreateUser(ctx, "eve", "pw", "superuser")
	assert.True(t, isValidation(err))

	_, err = auth.CreateUser(ctx, "", "pw", permissions.RoleCashier)
	assert.True(t, isValidation(err))

	_, err = auth.CreateUser(ctx, "eve", "pw", permissions.RoleCashier)
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, "eve", "other", permissions.RoleCashier)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}
