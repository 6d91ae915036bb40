// Package images validates, normalizes and stores uploaded recipe images.
package images

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrNotFound is returned when a stored image does not exist.
var ErrNotFound = errors.New("image not found")

// validName matches the file names produced by Processor.
var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.jpg$`)

// Storage manages image files under a single directory.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorageWithSubdir creates a Storage rooted at {basePath}/{subdir},
// creating the directory if needed.
// Example: NewStorageWithSubdir("/data/media", "recipes") -> /data/media/recipes/.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// ValidName reports whether name is a file name this package could have produced.
// Anything else, including path traversal attempts, is rejected.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// Save writes data under name, replacing any existing file.
func (s *Storage) Save(name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod image file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("rename image file: %w", err)
	}
	return nil
}

// Get returns the bytes stored under name.
// Returns ErrNotFound if there is no such image.
func (s *Storage) Get(name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}

// Exists checks if an image is stored under name.
func (s *Storage) Exists(name string) bool {
	if !ValidName(name) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes the image stored under name. Missing files are not an error.
func (s *Storage) Delete(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid image name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

// Hash returns the hex SHA256 of the stored image, used as an ETag.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Path returns the filesystem path for name. It does not validate name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, name)
}
