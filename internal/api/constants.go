package api

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-store"
)

// mediaRecipesPath is the public prefix of stored recipe images.
const mediaRecipesPath = "/media/recipes/"
