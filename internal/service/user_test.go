package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

func TestUserService_Get(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "cook@example.com")

	got, err := env.users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", got.Email)

	_, err = env.users.Get(context.Background(), "user-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUserService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "cook@example.com")

	updated, err := env.users.Update(ctx, user.ID, UpdateUserRequest{
		Name:     ptr("Updated Name"),
		Password: ptr("newpassword123"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", updated.Name)
	assert.Equal(t, "cook@example.com", updated.Email)

	// The new password works and the old one does not.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "newpassword123"})
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_Update_NameOnlyKeepsPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "cook@example.com")

	_, err := env.users.Update(ctx, user.ID, UpdateUserRequest{Name: ptr("Chef")})
	require.NoError(t, err)

	stored, err := env.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
	assert.Equal(t, "Chef", stored.Name)
}

func TestUserService_Update_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "cook@example.com")

	_, err := env.users.Update(context.Background(), user.ID, UpdateUserRequest{Password: ptr("pw")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
