package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/user/create",
		Summary:       "Register user",
		Description:   "Creates a new user account. The password is never returned.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.authRateLimit},
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/user/token",
		Summary:     "Create token",
		Description: "Exchanges email and password for a bearer access token",
		Tags:        []string{"Users"},
		Middlewares: huma.Middlewares{s.authRateLimit},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/user/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/user/me",
		Summary:     "Update current user",
		Description: "Partially updates the authenticated user's name and/or password",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)
}

// === DTOs ===

// CreateUserRequest is the request body for registration. Length rules are
// enforced by the service so they surface as 400s.
type CreateUserRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    string   `json:"email,omitempty" doc:"Email address" example:"cook@example.com"`
	Password string   `json:"password,omitempty" doc:"Password, at least 5 characters"`
	Name     string   `json:"name,omitempty" doc:"Display name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// CreateTokenRequest is the request body for obtaining a token.
type CreateTokenRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    string   `json:"email,omitempty" doc:"Email address"`
	Password string   `json:"password,omitempty" doc:"Password"`
}

// CreateTokenInput wraps the token request for Huma.
type CreateTokenInput struct {
	Body CreateTokenRequest
}

// TokenResponse contains a bearer access token.
type TokenResponse struct {
	Token     string `json:"token" doc:"PASETO access token"`
	TokenType string `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn int    `json:"expires_in" doc:"Token lifetime in seconds"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         TokenResponse
}

// UserResponse is the public view of a user.
type UserResponse struct {
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// UpdateUserRequest is the request body for PATCH /user/me.
type UpdateUserRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Name     *string  `json:"name,omitempty" doc:"New display name"`
	Password *string  `json:"password,omitempty" doc:"New password, at least 5 characters"`
}

// UpdateUserInput wraps the update request for Huma.
type UpdateUserInput struct {
	Body UpdateUserRequest
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{
		CacheControl: CacheNoStore,
		Body: TokenResponse{
			Token:     resp.Token,
			TokenType: resp.TokenType,
			ExpiresIn: resp.ExpiresIn,
		},
	}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.Update(ctx, userID, service.UpdateUserRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Email: u.Email,
		Name:  u.Name,
	}
}
