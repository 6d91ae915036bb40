package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipe/recipes",
		Summary:     "List recipes",
		Description: "Returns the caller's recipes, newest first, optionally filtered by tag or ingredient IDs",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipe/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a recipe. Tags and ingredients are matched by name and created when missing.",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipe/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe with its tags and ingredients",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipe/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partially updates a recipe. A tags or ingredients list replaces the current set; an empty list detaches all.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipe/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Updates a recipe; title, time_minutes and price are required",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/recipe/recipes/{id}",
		Summary:       "Delete recipe",
		Description:   "Deletes a recipe and its image. Tags and ingredients are kept.",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// LabelRef names a tag or ingredient inside a recipe payload.
type LabelRef struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" maxLength:"255" doc:"Tag or ingredient name"`
}

// LabelResponse is a tag or ingredient in API responses.
type LabelResponse struct {
	ID   int64  `json:"id" doc:"ID"`
	Name string `json:"name" doc:"Name"`
}

// ListRecipesInput contains the list filters.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"Comma-separated tag IDs; matches recipes with any of them" example:"1,2"`
	Ingredients string `query:"ingredients" doc:"Comma-separated ingredient IDs; matches recipes with any of them" example:"3,4"`
}

// RecipeSummary is the list view of a recipe.
type RecipeSummary struct {
	ID          int64  `json:"id" doc:"Recipe ID"`
	Title       string `json:"title" doc:"Title"`
	TimeMinutes int    `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       Price  `json:"price" doc:"Price"`
	Link        string `json:"link" doc:"External link"`
}

// RecipeDetail is the detail view of a recipe.
type RecipeDetail struct {
	RecipeSummary
	Description   string          `json:"description" doc:"Description"`
	Image         *string         `json:"image" doc:"Image URL, null when no image was uploaded"`
	ImageBlurHash *string         `json:"image_blurhash" doc:"BlurHash placeholder for the image"`
	Tags          []LabelResponse `json:"tags" doc:"Tags"`
	Ingredients   []LabelResponse `json:"ingredients" doc:"Ingredients"`
}

// ListRecipesOutput wraps the recipe list for Huma.
type ListRecipesOutput struct {
	Body []RecipeSummary
}

// RecipeOutput wraps a recipe detail for Huma.
type RecipeOutput struct {
	Body RecipeDetail
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	_           struct{}   `json:"-" additionalProperties:"true"`
	Title       string     `json:"title" doc:"Title, at most 255 characters"`
	TimeMinutes int        `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       Price      `json:"price" doc:"Price, at most 5 digits with 2 decimal places"`
	Description string     `json:"description,omitempty" doc:"Description"`
	Link        string     `json:"link,omitempty" doc:"External link"`
	Tags        []LabelRef `json:"tags,omitempty" doc:"Tags by name"`
	Ingredients []LabelRef `json:"ingredients,omitempty" doc:"Ingredients by name"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Body CreateRecipeRequest
}

// RecipeIDInput identifies a recipe.
type RecipeIDInput struct {
	ID int64 `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeRequest is the request body for PATCH and PUT. Omitted fields
// keep their stored values.
type UpdateRecipeRequest struct {
	_           struct{}    `json:"-" additionalProperties:"true"`
	Title       *string     `json:"title,omitempty" doc:"Title"`
	TimeMinutes *int        `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *Price      `json:"price,omitempty" doc:"Price"`
	Description *string     `json:"description,omitempty" doc:"Description"`
	Link        *string     `json:"link,omitempty" doc:"External link; empty string clears it"`
	Tags        *[]LabelRef `json:"tags,omitempty" doc:"Replaces the tag set; [] detaches all"`
	Ingredients *[]LabelRef `json:"ingredients,omitempty" doc:"Replaces the ingredient set; [] detaches all"`
}

// UpdateRecipeInput wraps the update request for Huma.
type UpdateRecipeInput struct {
	ID   int64 `path:"id" doc:"Recipe ID"`
	Body UpdateRecipeRequest
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	tagIDs, err := parseIDList("tags", input.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseIDList("ingredients", input.Ingredients)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, userID, domain.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeSummary, len(recipes))
	for i, r := range recipes {
		resp[i] = mapRecipeSummary(r)
	}

	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price.Decimal,
		Description: input.Body.Description,
		Link:        input.Body.Link,
		Tags:        labelNames(input.Body.Tags),
		Ingredients: labelNames(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, userID, input.ID, toServiceUpdate(input.Body))
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Replace(ctx, userID, input.ID, toServiceUpdate(input.Body))
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeDetail(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// === Mapping ===

// parseIDList parses "1,2,3". Blank input means no filter.
func parseIDList(field, raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, domainerrors.FieldValidation(field, field+" must be a comma-separated list of integer IDs")
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func labelNames(refs []LabelRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}

func toServiceUpdate(body UpdateRecipeRequest) service.UpdateRecipeRequest {
	req := service.UpdateRecipeRequest{
		Title:       body.Title,
		TimeMinutes: body.TimeMinutes,
		Description: body.Description,
		Link:        body.Link,
	}
	if body.Price != nil {
		price := body.Price.Decimal
		req.Price = &price
	}
	if body.Tags != nil {
		names := labelNames(*body.Tags)
		req.Tags = &names
	}
	if body.Ingredients != nil {
		names := labelNames(*body.Ingredients)
		req.Ingredients = &names
	}
	return req
}

func mapRecipeSummary(r *domain.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       NewPrice(r.Price),
		Link:        r.Link,
	}
}

func mapRecipeDetail(r *domain.Recipe) RecipeDetail {
	detail := RecipeDetail{
		RecipeSummary: mapRecipeSummary(r),
		Description:   r.Description,
		Tags:          make([]LabelResponse, len(r.Tags)),
		Ingredients:   make([]LabelResponse, len(r.Ingredients)),
	}
	if r.HasImage() {
		url := imageURL(r.Image)
		detail.Image = &url
		if r.ImageBlurHash != "" {
			hash := r.ImageBlurHash
			detail.ImageBlurHash = &hash
		}
	}
	for i, t := range r.Tags {
		detail.Tags[i] = LabelResponse{ID: t.ID, Name: t.Name}
	}
	for i, ing := range r.Ingredients {
		detail.Ingredients[i] = LabelResponse{ID: ing.ID, Name: ing.Name}
	}
	return detail
}

// imageURL is the public path of a stored recipe image.
func imageURL(name string) string {
	return mediaRecipesPath + name
}
