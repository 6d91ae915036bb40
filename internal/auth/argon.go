package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// maxPasswordLength caps the input fed to argon2 so a huge body cannot pin a CPU.
const maxPasswordLength = 1024

// ErrEmptyPassword is returned when hashing a blank password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// Params are the argon2id cost parameters encoded into every hash.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is used for new hashes.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes and verifies passwords with a fixed set of Params.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher using p.
func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// HashPassword hashes password with DefaultParams.
func HashPassword(password string) (string, error) {
	return NewHasher(DefaultParams).Hash(password)
}

// VerifyPassword checks password against an encoded argon2id hash.
func VerifyPassword(encodedHash, password string) (bool, error) {
	return NewHasher(DefaultParams).Verify(encodedHash, password)
}

// Hash returns the PHC-style encoding
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash, using the parameters
// stored in the hash. A malformed hash is reported as a mismatch.
func (h *Hasher) Verify(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	salt, key, params, err := decodeHash(encodedHash)
	if err != nil {
		//nolint:nilerr // a corrupt hash must look like a wrong password
		return false, nil
	}

	candidate := argon2.IDKey([]byte(password), salt,
		params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with different cost
// parameters than the Hasher's.
func (h *Hasher) NeedsRehash(encodedHash string) bool {
	_, _, params, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength
}

// decodeHash splits an encoded hash into salt, key and parameters.
func decodeHash(encodedHash string) (salt, key []byte, params Params, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, Params{}, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, nil, Params{}, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, Params{}, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, Params{}, fmt.Errorf("incompatible version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, Params{}, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, Params{}, fmt.Errorf("invalid salt encoding: %w", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, Params{}, fmt.Errorf("invalid hash encoding: %w", err)
	}

	//nolint:gosec // key length comes from our own encoder
	params.SaltLength = uint32(len(salt))
	//nolint:gosec // key length comes from our own encoder
	params.KeyLength = uint32(len(key))
	return salt, key, params, nil
}
