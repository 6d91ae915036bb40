package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "Cook@EXAMPLE.com",
		Password: "testpass123",
		Name:     "Test Cook",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Cook@example.com", user.Email)
	assert.Equal(t, "Test Cook", user.Name)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "testpass123", user.PasswordHash)

	stored, err := env.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "cook@example.com")

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    "COOK@example.com",
		Password: "testpass123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	// No user was created.
	_, err = env.store.GetUserByEmail(ctx, "cook@example.com")
	assert.Error(t, err)
}

func TestAuthService_Register_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "testpass123",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "cook@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 15*60, resp.ExpiresIn)

	verified, claims, err := env.auth.VerifyAccessToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, user.ID, claims.UserID)

	stored, err := env.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.LastLoginAt.IsZero())
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "cook@example.com")

	tests := []struct {
		name string
		req  LoginRequest
		want error
	}{
		{"wrong password", LoginRequest{Email: "cook@example.com", Password: "wrongpass"}, domainerrors.ErrInvalidCredentials},
		{"unknown user", LoginRequest{Email: "nobody@example.com", Password: "testpass123"}, domainerrors.ErrInvalidCredentials},
		{"blank password", LoginRequest{Email: "cook@example.com", Password: ""}, domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.auth.Login(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)

			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, 400, de.HTTPStatus())
		})
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "cook@example.com")

	user.IsActive = false
	require.NoError(t, env.store.UpdateUser(ctx, user))

	_, err := env.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_VerifyAccessToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.VerifyAccessToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyAccessToken_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "cook@example.com")

	token, err := env.tokens.GenerateAccessToken(user)
	require.NoError(t, err)

	user.ID = "user-ghost"
	ghostToken, err := env.tokens.GenerateAccessToken(user)
	require.NoError(t, err)

	_, _, err = env.auth.VerifyAccessToken(ctx, token)
	require.NoError(t, err)

	_, _, err = env.auth.VerifyAccessToken(ctx, ghostToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
