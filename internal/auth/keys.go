// Package auth provides password hashing and access token handling.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// KeyFileName is the file holding the hex-encoded token key.
	KeyFileName = "auth.key"

	// PASETO v4 requires a 256-bit symmetric key.
	keyLength    = 32
	keyHexLength = keyLength * 2
)

// LoadOrGenerateKey returns the token key stored in <dataDir>/auth.key,
// creating the file with a fresh random key on first run. Tokens issued with
// a key stay valid across restarts only while the file is kept.
func LoadOrGenerateKey(dataDir string) ([]byte, error) {
	keyPath := filepath.Join(dataDir, KeyFileName)

	//#nosec G304 -- path is derived from the configured data dir
	raw, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		return decodeKey(string(raw))
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}

func decodeKey(s string) ([]byte, error) {
	keyHex := strings.TrimSpace(s)
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	return key, nil
}
