package providers

import (
	"github.com/samber/do/v2"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/media/images"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/validation"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, hasher, v, log.Logger), nil
}

// ProvideUserService provides the account service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, hasher, v, log.Logger), nil
}

// ProvideRecipeService provides the recipe service.
func ProvideRecipeService(i do.Injector) (*service.RecipeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecipeService(storeHandle.Store, processor, v, log.Logger), nil
}

// LabelServices groups the tag and ingredient services, which share a type.
type LabelServices struct {
	Tags        *service.LabelService
	Ingredients *service.LabelService
}

// ProvideLabelServices provides the tag and ingredient services.
func ProvideLabelServices(i do.Injector) (*LabelServices, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &LabelServices{
		Tags:        service.NewTagService(storeHandle.Store, log.Logger),
		Ingredients: service.NewIngredientService(storeHandle.Store, log.Logger),
	}, nil
}
