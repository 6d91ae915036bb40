package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/config"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/media/images"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/store/sqlite"
	"github.com/larderapp/larder-server/internal/validation"
)

// testEnvelope mirrors the response envelope with typed data.
type testEnvelope[T any] struct {
	Version int                       `json:"v"`
	Success bool                      `json:"success"`
	Data    T                         `json:"data"`
	Error   string                    `json:"error"`
	Code    string                    `json:"code"`
	Details []domainerrors.FieldError `json:"details"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlite.Store
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "error"},
		Server: config.ServerConfig{
			Port:                  "0",
			ReadTimeout:           time.Second,
			WriteTimeout:          time.Second,
			IdleTimeout:           time.Second,
			CORSOrigins:           []string{"*"},
			AuthRequestsPerMinute: 1000,
			AuthBurst:             1000,
			MaxUploadBytes:        1 << 20,
		},
		Auth: config.AuthConfig{
			AccessTokenKey:      bytes.Repeat([]byte{0x42}, 32),
			AccessTokenDuration: 15 * time.Minute,
		},
	}
}

// setupTestServer creates a server backed by a temporary SQLite database
// and image directory.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithConfig(t, testConfig())
}

func setupTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	log := logger.Discard().Logger

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokenService, err := auth.NewTokenService(cfg.Auth.AccessTokenKey, cfg.Auth.AccessTokenDuration)
	require.NoError(t, err)

	media, err := images.NewStorageWithSubdir(tmpDir, "recipes")
	require.NoError(t, err)
	processor := images.NewProcessor(media, cfg.Server.MaxUploadBytes, log)

	hasher := auth.NewHasher(auth.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	v := validation.New()

	services := &Services{
		Auth:       service.NewAuthService(st, tokenService, hasher, v, log),
		User:       service.NewUserService(st, hasher, v, log),
		Recipe:     service.NewRecipeService(st, processor, v, log),
		Tag:        service.NewTagService(st, log),
		Ingredient: service.NewIngredientService(st, log),
	}

	s := NewServer(st, services, media, cfg, log)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		store:  st,
	}
}

// createUser registers an account and returns a bearer token for it.
func (ts *testServer) createUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/user/create", map[string]any{
		"email":    email,
		"password": "testpass123",
		"name":     "Test Cook",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "create user failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/user/token", map[string]any{
		"email":    email,
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "token failed: %s", resp.Body.String())

	env := decodeEnvelope[TokenResponse](t, resp)
	require.NotEmpty(t, env.Data.Token)
	return env.Data.Token
}

// createRecipe posts a recipe and returns the created detail.
func (ts *testServer) createRecipe(t *testing.T, token string, body map[string]any) RecipeDetail {
	t.Helper()

	payload := map[string]any{
		"title":        "Sample recipe",
		"time_minutes": 10,
		"price":        "5.00",
	}
	for k, v := range body {
		payload[k] = v
	}

	resp := ts.api.Post("/api/v1/recipe/recipes", bearer(token), payload)
	require.Equal(t, http.StatusCreated, resp.Code, "create recipe failed: %s", resp.Body.String())
	return decodeEnvelope[RecipeDetail](t, resp).Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	return env
}

func names(labels []LabelResponse) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Name
	}
	return out
}

func tagRefs(names ...string) []map[string]any {
	refs := make([]map[string]any, len(names))
	for i, n := range names {
		refs[i] = map[string]any{"name": n}
	}
	return refs
}
