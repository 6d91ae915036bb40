package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesThenReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte("abc"), 0o600))
	_, err := LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "invalid auth key length")

	bad := make([]byte, keyHexLength)
	for i := range bad {
		bad[i] = 'z'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), bad, 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "not valid hex")
}

func TestLoadOrGenerateKey_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	hexKey := "0001020304050607080900010203040506070809000102030405060708090001"
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte(hexKey+"\n"), 0o600))

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)
	assert.Equal(t, byte(0x01), key[1])
}
