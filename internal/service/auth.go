package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/validation"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	hasher       *auth.Hasher
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	hasher *auth.Hasher,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		hasher:       hasher,
		validator:    validator,
		logger:       logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"max=255"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// errBadCredentials is shared by every login failure.
var errBadCredentials = domainerrors.InvalidCredentials("unable to authenticate with provided credentials")

// Register creates a new active user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a user with this email already exists").
				WithDetails([]domainerrors.FieldError{{Field: "email", Message: "already in use"}})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login checks credentials and issues an access token.
// Unknown users, wrong passwords and inactive accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := s.hasher.Verify(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid || !user.IsActive {
		s.logger.Debug("login rejected", "user_id", user.ID, "active", user.IsActive)
		return nil, errBadCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		if rehashed, err := s.hasher.Hash(req.Password); err == nil {
			user.PasswordHash = rehashed
		}
	}
	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Not fatal for the login itself.
		s.logger.Warn("failed to update last login time", "user_id", user.ID, "error", err)
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &TokenResponse{
		Token:     token,
		TokenType: auth.TokenType,
		ExpiresIn: int(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// VerifyAccessToken validates a token and returns the user it was issued to.
// Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, domainerrors.Unauthorized("user is inactive")
	}

	return user, claims, nil
}
