package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/validation"
)

// UserService manages the authenticated user's own account.
type UserService struct {
	store     store.Store
	hasher    *auth.Hasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, hasher *auth.Hasher, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// UpdateUserRequest is a partial account update. Nil fields are left alone.
// Email cannot be changed.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5,max=1024"`
}

// Get returns the user with userID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies a partial update to the user's name and password.
func (s *UserService) Update(ctx context.Context, userID string, req UpdateUserRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name == nil && req.Password == nil {
		return user, nil
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated",
		"user_id", user.ID,
		"name_changed", req.Name != nil,
		"password_changed", req.Password != nil,
	)
	return user, nil
}
