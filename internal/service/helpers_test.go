package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/media/images"
	"github.com/larderapp/larder-server/internal/store/sqlite"
	"github.com/larderapp/larder-server/internal/validation"
)

// testEnv wires every service against a temporary SQLite database.
type testEnv struct {
	store       *sqlite.Store
	tokens      *auth.TokenService
	images      *images.Processor
	auth        *AuthService
	users       *UserService
	recipes     *RecipeService
	tags        *LabelService
	ingredients *LabelService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	log := logger.Discard().Logger

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{0x11}, 32), 15*time.Minute)
	require.NoError(t, err)

	storage, err := images.NewStorageWithSubdir(tmpDir, "recipes")
	require.NoError(t, err)
	processor := images.NewProcessor(storage, 1<<20, log)

	hasher := auth.NewHasher(auth.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	v := validation.New()

	return &testEnv{
		store:       s,
		tokens:      tokens,
		images:      processor,
		auth:        NewAuthService(s, tokens, hasher, v, log),
		users:       NewUserService(s, hasher, v, log),
		recipes:     NewRecipeService(s, processor, v, log),
		tags:        NewTagService(s, log),
		ingredients: NewIngredientService(s, log),
	}
}

// registerUser creates an account and returns it.
func (e *testEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test Cook",
	})
	require.NoError(t, err)
	return user
}

func ptr[T any](v T) *T {
	return &v
}
