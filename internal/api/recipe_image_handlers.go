package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/http/response"
	"github.com/larderapp/larder-server/internal/media/images"
)

// imageFormField is the multipart field carrying the upload.
const imageFormField = "image"

func (s *Server) registerRecipeImageRoutes() {
	// Multipart bodies stay outside huma; the handler writes the same envelope.
	s.router.Post("/api/v1/recipe/recipes/{id}/upload-image", s.handleUploadRecipeImage)
}

func (s *Server) registerMediaRoutes() {
	s.router.Get(mediaRecipesPath+"{file}", s.handleServeRecipeImage)
}

// RecipeImageResponse is returned by a successful upload.
type RecipeImageResponse struct {
	ID            int64  `json:"id"`
	Image         string `json:"image"`
	ImageBlurHash string `json:"image_blurhash,omitempty"`
}

// handleUploadRecipeImage stores a new image for a recipe.
// POST /api/v1/recipe/recipes/{id}/upload-image
// Content-Type: multipart/form-data with "image" field
func (s *Server) handleUploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := GetUserID(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication credentials were not provided or are invalid", s.logger)
		return
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.NotFound(w, "Recipe not found", s.logger)
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.HandleError(w, domainerrors.FieldValidation(imageFormField, images.ErrTooLarge.Error()), s.logger)
			return
		}
		response.HandleError(w, domainerrors.FieldValidation(imageFormField, "Failed to parse form data"), s.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		response.HandleError(w, domainerrors.FieldValidation(imageFormField, "No file was submitted. Use the 'image' field in a multipart form."), s.logger)
		return
	}
	defer file.Close()

	recipe, err := s.services.Recipe.UploadImage(ctx, userID, recipeID, file)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, RecipeImageResponse{
		ID:            recipe.ID,
		Image:         imageURL(recipe.Image),
		ImageBlurHash: recipe.ImageBlurHash,
	}, s.logger)
}

// handleServeRecipeImage serves a stored recipe image.
// Names are random keys, so the media URL is public like a static file.
func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if !images.ValidName(name) || !s.media.Exists(name) {
		response.NotFound(w, "Image not found", s.logger)
		return
	}

	if etag, err := s.media.Hash(name); err == nil {
		w.Header().Set("ETag", `"`+etag+`"`)
	}
	w.Header().Set("Cache-Control", CacheOneWeek)
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, s.media.Path(name))
}
