package domain

import "time"

// Tag is a user-owned label for recipes. Names are unique per owner.
type Tag struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ingredient is a user-owned ingredient. Names are unique per owner.
type Ingredient struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelKind distinguishes the two owner-scoped name tables.
type LabelKind string

const (
	// LabelTag selects tags.
	LabelTag LabelKind = "tag"
	// LabelIngredient selects ingredients.
	LabelIngredient LabelKind = "ingredient"
)

// Label is the shape shared by Tag and Ingredient, used where the two are
// handled uniformly.
type Label struct {
	ID        int64
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag converts the label to a Tag.
func (l Label) Tag() Tag {
	return Tag(l)
}

// Ingredient converts the label to an Ingredient.
func (l Label) Ingredient() Ingredient {
	return Ingredient(l)
}

// LabelFilter narrows a tag or ingredient listing.
type LabelFilter struct {
	// AssignedOnly limits results to labels linked to at least one recipe.
	AssignedOnly bool
}
