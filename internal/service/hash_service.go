package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params tunes the Argon2id cost. Stored hashes carry their own
// parameters, so changing these only affects new hashes.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params is used for the admin secret.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Argon2Hasher implements ports.HashService using Argon2id in the PHC string
// format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher creates a hasher with the default parameters.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: DefaultArgon2Params}
}

// NewArgon2HasherWithParams creates a hasher with custom cost parameters.
func NewArgon2HasherWithParams(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

// Hash derives an encoded Argon2id hash of secret with a random salt.
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether secret matches encoded, comparing in constant time.
func (h *Argon2Hasher) Verify(secret string, encoded string) (bool, error) {
	stored, err := parseArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(secret), stored.salt, stored.params.Time, stored.params.Memory,
		stored.params.Threads, uint32(len(stored.key)))

	return subtle.ConstantTimeCompare(stored.key, candidate) == 1, nil
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2Hash(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var out argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Time, &out.params.Threads); err != nil {
		return nil, fmt.Errorf("parsing params: %w", err)
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}
	if len(out.key) == 0 {
		return nil, errors.New("empty hash")
	}
	return &out, nil
}
