package id

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"user", "user"},
		{"token", "token"},
		{"custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Generate(tt.prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, tt.prefix+"-"))
			// prefix + "-" + 21 nanoid characters
			assert.Len(t, id, len(tt.prefix)+1+21)
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("user")
		assert.True(t, strings.HasPrefix(id, "user-"))
	})
}

func TestFileKey(t *testing.T) {
	pattern := regexp.MustCompile(`^recipe-[0-9a-z]{16}$`)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key, err := FileKey("recipe")
		require.NoError(t, err)
		assert.Regexp(t, pattern, key)
		assert.False(t, seen[key], "key should be unique: %s", key)
		seen[key] = true
	}
}
