// Package id generates the prefixed string identifiers used for users,
// tokens and stored files.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// fileAlphabet avoids characters that are awkward in file names and URLs.
const (
	fileAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	fileKeySize  = 16
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "user-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// FileKey creates a lowercase alphanumeric key suitable for a stored file name.
// Format: prefix-xxxxxxxxxxxxxxxx.
func FileKey(prefix string) (string, error) {
	key, err := gonanoid.Generate(fileAlphabet, fileKeySize)
	if err != nil {
		return "", fmt.Errorf("generate file key: %w", err)
	}
	return prefix + "-" + key, nil
}
