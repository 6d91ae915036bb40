package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecipeFields_Apply(t *testing.T) {
	r := &Recipe{Title: "Toast", TimeMinutes: 2, Price: decimal.RequireFromString("1.00"), Link: "https://example.com"}

	assert.False(t, RecipeFields{}.Apply(r), "empty fields change nothing")
	assert.Equal(t, "Toast", r.Title)

	title := "French toast"
	price := decimal.RequireFromString("3.50")
	empty := ""
	changed := RecipeFields{Title: &title, Price: &price, Link: &empty}.Apply(r)

	assert.True(t, changed)
	assert.Equal(t, "French toast", r.Title)
	assert.Equal(t, 2, r.TimeMinutes)
	assert.Equal(t, "3.50", r.Price.StringFixed(2))
	assert.Empty(t, r.Link)
}

func TestRecipe_HasImage(t *testing.T) {
	r := &Recipe{}
	assert.False(t, r.HasImage())
	r.Image = "recipe-abc.jpg"
	assert.True(t, r.HasImage())
}

func TestLabel_Conversions(t *testing.T) {
	l := Label{ID: 7, UserID: "u1", Name: "Thai"}
	assert.Equal(t, Tag{ID: 7, UserID: "u1", Name: "Thai"}, l.Tag())
	assert.Equal(t, Ingredient{ID: 7, UserID: "u1", Name: "Thai"}, l.Ingredient())
}
