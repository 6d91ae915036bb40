package api

import "github.com/larderapp/larder-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	User       *service.UserService
	Recipe     *service.RecipeService
	Tag        *service.LabelService
	Ingredient *service.LabelService
}
