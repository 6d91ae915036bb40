package store

import "github.com/larderapp/larder-server/internal/domain"

// NameList is an optional list of label names. Set distinguishes an absent
// list from an empty one: an empty list that is Set detaches every label.
type NameList struct {
	Names []string
	Set   bool
}

// Names returns a NameList that replaces the current links with names.
func Names(names ...string) NameList {
	if names == nil {
		names = []string{}
	}
	return NameList{Names: names, Set: true}
}

// RecipeUpdate describes a partial recipe write. Nil fields and unset name
// lists leave the stored values alone.
type RecipeUpdate struct {
	Fields      domain.RecipeFields
	Tags        NameList
	Ingredients NameList
}
