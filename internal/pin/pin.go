// Package pin hashes and verifies short secrets (account PINs and the
// admin password) with argon2id. Plaintext is never stored; the encoded
// form is "base64(salt)$base64(hash)".
package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// MinPINLength is the minimum accepted PIN length.
const MinPINLength = 4

// MinAdminPasswordLength is the minimum accepted admin password length.
const MinAdminPasswordLength = 6

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams returns the cost parameters used when none are configured.
func DefaultParams() Params {
	return Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

// Hasher derives and verifies argon2id hashes with fixed parameters.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher. Zero-valued fields fall back to defaults.
func NewHasher(p Params) *Hasher {
	def := DefaultParams()
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Memory == 0 {
		p.Memory = def.Memory
	}
	if p.Threads == 0 {
		p.Threads = def.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = def.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = def.SaltLen
	}
	return &Hasher{params: p}
}

// Hash returns the encoded hash of plain under a fresh random salt.
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	return base64.StdEncoding.EncodeToString(salt) + "$" + base64.StdEncoding.EncodeToString(hash), nil
}

// Verify reports whether plain matches the encoded hash. Malformed encoded
// values verify as false rather than erroring.
func (h *Hasher) Verify(plain, encoded string) bool {
	salt64, hash64, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(salt64)
	if err != nil {
		return false
	}
	hash, err := base64.StdEncoding.DecodeString(hash64)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1
}
