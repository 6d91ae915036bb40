package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/media/images"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/validation"
)

// RecipeService owns recipe writes: scalar fields plus the owner-scoped
// get-or-create of tags and ingredients, and the recipe image.
type RecipeService struct {
	store     store.Store
	images    *images.Processor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	store store.Store,
	images *images.Processor,
	validator *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:     store,
		images:    images,
		validator: validator,
		logger:    logger,
	}
}

// CreateRecipeRequest holds a new recipe. Tags and Ingredients are names;
// missing ones are created for the owner.
type CreateRecipeRequest struct {
	Title       string          `json:"title" validate:"notblank,max=255"`
	TimeMinutes int             `json:"time_minutes" validate:"gte=0"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Description string          `json:"description"`
	Link        string          `json:"link" validate:"omitempty,url,max=255"`
	Tags        []string        `json:"tags" validate:"-"`
	Ingredients []string        `json:"ingredients" validate:"-"`
}

// UpdateRecipeRequest is a partial recipe write. Nil fields keep their
// stored value; a non-nil Tags or Ingredients replaces the whole set, and an
// empty list detaches everything.
type UpdateRecipeRequest struct {
	Title       *string          `json:"title" validate:"omitnil,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,money"`
	Description *string          `json:"description"`
	Link        *string          `json:"link" validate:"omitempty,url,max=255"`
	Tags        *[]string        `json:"tags" validate:"-"`
	Ingredients *[]string        `json:"ingredients" validate:"-"`
}

// Create stores a recipe for userID along with its tags and ingredients.
func (s *RecipeService) Create(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	tags, err := cleanNames("tags", req.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, err := cleanNames("ingredients", req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Description: req.Description,
		Link:        req.Link,
	}
	recipe.InitTimestamps()

	created, err := s.store.CreateRecipe(ctx, recipe, tags, ingredients)
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	metrics.RecordRecipeWrite("create")
	s.logger.Info("recipe created",
		"recipe_id", created.ID,
		"user_id", userID,
		"tags", len(created.Tags),
		"ingredients", len(created.Ingredients),
	)
	return created, nil
}

// Get returns one of the owner's recipes with tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, mapRecipeError(err, id)
	}
	return recipe, nil
}

// List returns the owner's recipes, newest first, narrowed by filter.
func (s *RecipeService) List(ctx context.Context, userID string, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update applies a partial write to one of the owner's recipes.
func (s *RecipeService) Update(ctx context.Context, userID string, id int64, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	update := store.RecipeUpdate{
		Fields: domain.RecipeFields{
			Title:       req.Title,
			TimeMinutes: req.TimeMinutes,
			Price:       req.Price,
			Description: req.Description,
			Link:        req.Link,
		},
	}
	if req.Tags != nil {
		tags, err := cleanNames("tags", *req.Tags)
		if err != nil {
			return nil, err
		}
		update.Tags = store.Names(tags...)
	}
	if req.Ingredients != nil {
		ingredients, err := cleanNames("ingredients", *req.Ingredients)
		if err != nil {
			return nil, err
		}
		update.Ingredients = store.Names(ingredients...)
	}

	updated, err := s.store.UpdateRecipe(ctx, userID, id, update)
	if err != nil {
		return nil, mapRecipeError(err, id)
	}

	metrics.RecordRecipeWrite("update")
	s.logger.Info("recipe updated",
		"recipe_id", id,
		"user_id", userID,
		"tags_replaced", update.Tags.Set,
		"ingredients_replaced", update.Ingredients.Set,
	)
	return updated, nil
}

// Replace is Update for a full representation: title, time_minutes and
// price must be present. Omitted optional fields keep their values.
func (s *RecipeService) Replace(ctx context.Context, userID string, id int64, req UpdateRecipeRequest) (*domain.Recipe, error) {
	var missing []domainerrors.FieldError
	if req.Price == nil {
		missing = append(missing, domainerrors.FieldError{Field: "price", Message: "is required"})
	}
	if req.TimeMinutes == nil {
		missing = append(missing, domainerrors.FieldError{Field: "time_minutes", Message: "is required"})
	}
	if req.Title == nil {
		missing = append(missing, domainerrors.FieldError{Field: "title", Message: "is required"})
	}
	if len(missing) > 0 {
		return nil, domainerrors.ValidationWithDetails(missing[0].Field+" is required", missing)
	}
	return s.Update(ctx, userID, id, req)
}

// Delete removes one of the owner's recipes and its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID string, id int64) error {
	deleted, err := s.store.DeleteRecipe(ctx, userID, id)
	if err != nil {
		return mapRecipeError(err, id)
	}

	if deleted.HasImage() {
		s.removeImage(deleted.Image)
	}

	metrics.RecordRecipeWrite("delete")
	s.logger.Info("recipe deleted", "recipe_id", id, "user_id", userID)
	return nil
}

// UploadImage validates and stores a new image for one of the owner's
// recipes, replacing any previous one.
func (s *RecipeService) UploadImage(ctx context.Context, userID string, id int64, r io.Reader) (*domain.Recipe, error) {
	// Resolve ownership before touching the filesystem.
	if _, err := s.store.GetRecipe(ctx, userID, id); err != nil {
		return nil, mapRecipeError(err, id)
	}

	res, err := s.images.Process(ctx, r, "recipe")
	if err != nil {
		switch {
		case errors.Is(err, images.ErrUnsupportedType),
			errors.Is(err, images.ErrInvalidImage),
			errors.Is(err, images.ErrTooLarge),
			errors.Is(err, images.ErrTooManyPixels):
			return nil, domainerrors.FieldValidation("image", imageErrorMessage(err))
		default:
			return nil, fmt.Errorf("process image: %w", err)
		}
	}

	updated, previous, err := s.store.SetRecipeImage(ctx, userID, id, res.Name, res.BlurHash)
	if err != nil {
		s.removeImage(res.Name)
		return nil, mapRecipeError(err, id)
	}
	if previous != "" && previous != res.Name {
		s.removeImage(previous)
	}

	metrics.RecordRecipeWrite("image")
	s.logger.Info("recipe image uploaded",
		"recipe_id", id,
		"user_id", userID,
		"image", res.Name,
		"source_type", res.SourceType,
		"size", res.Size,
	)
	return updated, nil
}

func (s *RecipeService) removeImage(name string) {
	if err := s.images.Storage().Delete(name); err != nil {
		s.logger.Warn("failed to delete recipe image", "image", name, "error", err)
	}
}

func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, images.ErrTooLarge):
		return images.ErrTooLarge.Error()
	case errors.Is(err, images.ErrTooManyPixels):
		return images.ErrTooManyPixels.Error()
	case errors.Is(err, images.ErrInvalidImage):
		return images.ErrInvalidImage.Error()
	default:
		return images.ErrUnsupportedType.Error()
	}
}

func mapRecipeError(err error, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("recipe %d not found", id)
	}
	return fmt.Errorf("recipe %d: %w", id, err)
}
