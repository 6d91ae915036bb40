package api

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 120, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadImage posts data as a multipart form under field.
func (ts *testServer) uploadImage(t *testing.T, token string, recipeID int64, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "photo.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/recipe/recipes/%d/upload-image", recipeID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func TestUploadRecipeImage(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "cook@example.com")
	recipe := ts.createRecipe(t, token, nil)

	resp := ts.uploadImage(t, token, recipe.ID, "image", encodePNG(t, 32, 32))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[RecipeImageResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, recipe.ID, env.Data.ID)
	assert.Contains(t, env.Data.Image, mediaRecipesPath)
	assert.NotEmpty(t, env.Data.ImageBlurHash)

	// The detail view carries the same URL.
	detail := ts.api.Get(fmt.Sprintf("/api/v1/recipe/recipes/%d", recipe.ID), bearer(token))
	require.Equal(t, http.StatusOK, detail.Code)
	got := decodeEnvelope[RecipeDetail](t, detail).Data
	require.NotNil(t, got.Image)
	assert.Equal(t, env.Data.Image, *got.Image)

	// The media URL serves the re-encoded JPEG.
	req := httptest.NewRequest(http.MethodGet, env.Data.Image, nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, CacheOneWeek, rec.Header().Get("Cache-Control"))
	assert.Equal(t, []byte{0xFF, 0xD8}, rec.Body.Bytes()[:2])

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req = httptest.NewRequest(http.MethodGet, env.Data.Image, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestUploadRecipeImage_ReplacesPrevious(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "cook@example.com")
	recipe := ts.createRecipe(t, token, nil)

	first := ts.uploadImage(t, token, recipe.ID, "image", encodePNG(t, 16, 16))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	firstName := path.Base(decodeEnvelope[RecipeImageResponse](t, first).Data.Image)
	require.True(t, ts.media.Exists(firstName))

	second := ts.uploadImage(t, token, recipe.ID, "image", encodePNG(t, 24, 24))
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	secondName := path.Base(decodeEnvelope[RecipeImageResponse](t, second).Data.Image)

	assert.NotEqual(t, firstName, secondName)
	assert.False(t, ts.media.Exists(firstName))
	assert.True(t, ts.media.Exists(secondName))
}

func TestUploadRecipeImage_Rejections(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "cook@example.com")
	recipe := ts.createRecipe(t, token, nil)

	tests := []struct {
		name  string
		field string
		data  []byte
	}{
		{name: "not an image", field: "image", data: []byte("just some text, not a picture")},
		{name: "truncated png", field: "image", data: encodePNG(t, 16, 16)[:40]},
		{name: "missing field", field: "", data: nil},
		{name: "wrong field name", field: "photo", data: encodePNG(t, 8, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.uploadImage(t, token, recipe.ID, tt.field, tt.data)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "VALIDATION", env.Code)
			require.NotEmpty(t, env.Details)
			assert.Equal(t, "image", env.Details[0].Field)
		})
	}

	// Nothing was attached.
	detail := ts.api.Get(fmt.Sprintf("/api/v1/recipe/recipes/%d", recipe.ID), bearer(token))
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Nil(t, decodeEnvelope[RecipeDetail](t, detail).Data.Image)
}

func TestUploadRecipeImage_OtherOwner(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.createUser(t, "alice@example.com")
	bob := ts.createUser(t, "bob@example.com")
	recipe := ts.createRecipe(t, alice, nil)

	resp := ts.uploadImage(t, bob, recipe.ID, "image", encodePNG(t, 8, 8))
	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	resp = ts.uploadImage(t, alice, recipe.ID+1000, "image", encodePNG(t, 8, 8))
	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestUploadRecipeImage_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.createUser(t, "cook@example.com")
	recipe := ts.createRecipe(t, token, nil)

	resp := ts.uploadImage(t, "", recipe.ID, "image", encodePNG(t, 8, 8))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestServeRecipeImage_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	for _, name := range []string{"missing.jpg", "..%2Fdata.db", "recipe-nothere.jpg"} {
		req := httptest.NewRequest(http.MethodGet, mediaRecipesPath+name, nil)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
	}
}
