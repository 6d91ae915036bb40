// Package store defines the persistence interface for the Larder server.
package store

import (
	"context"

	"github.com/larderapp/larder-server/internal/domain"
)

// Store defines the interface for all persistence operations.
// Every recipe, tag and ingredient method is scoped to an owner; rows owned
// by someone else are reported as ErrNotFound.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Recipes
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, tags, ingredients []string) (*domain.Recipe, error)
	GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, filter domain.RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, userID string, id int64, update RecipeUpdate) (*domain.Recipe, error)
	SetRecipeImage(ctx context.Context, userID string, id int64, image, blurHash string) (recipe *domain.Recipe, previous string, err error)
	DeleteRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error)

	// Tags and ingredients
	ListLabels(ctx context.Context, kind domain.LabelKind, userID string, filter domain.LabelFilter) ([]domain.Label, error)
	GetLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64) (*domain.Label, error)
	RenameLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64, name string) (*domain.Label, error)
	DeleteLabel(ctx context.Context, kind domain.LabelKind, userID string, id int64) error
}
