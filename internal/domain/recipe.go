package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is a user's recipe. Tags and Ingredients are only populated by
// detail reads; list reads leave them nil.
type Recipe struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	TimeMinutes   int             `json:"time_minutes"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	Link          string          `json:"link"`
	Image         string          `json:"image,omitempty"`
	ImageBlurHash string          `json:"image_blurhash,omitempty"`
	Tags          []Tag           `json:"tags,omitempty"`
	Ingredients   []Ingredient    `json:"ingredients,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InitTimestamps sets CreatedAt and UpdatedAt to now.
func (r *Recipe) InitTimestamps() {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}

// HasImage reports whether an image has been uploaded.
func (r *Recipe) HasImage() bool {
	return r.Image != ""
}

// RecipeFields holds the scalar recipe fields a write may change.
// A nil pointer means "leave as is".
type RecipeFields struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Description *string
	Link        *string
}

// Apply copies every set field onto r and reports whether anything was set.
func (f RecipeFields) Apply(r *Recipe) bool {
	changed := false
	if f.Title != nil {
		r.Title = *f.Title
		changed = true
	}
	if f.TimeMinutes != nil {
		r.TimeMinutes = *f.TimeMinutes
		changed = true
	}
	if f.Price != nil {
		r.Price = *f.Price
		changed = true
	}
	if f.Description != nil {
		r.Description = *f.Description
		changed = true
	}
	if f.Link != nil {
		r.Link = *f.Link
		changed = true
	}
	return changed
}

// RecipeFilter narrows a recipe listing. Empty slices apply no filter.
// A recipe matches TagIDs when it is linked to at least one of them; the
// same holds for IngredientIDs, and both filters must match.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}
