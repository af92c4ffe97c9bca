// Package keyderive turns a user passphrase into the session key. The engine
// keeps no key material outside memory, so the derivation must be fully
// deterministic: same passphrase, same key, every call.
package keyderive

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the derived key length in bytes, sized for XChaCha20-Poly1305.
const KeySize = 32

// DefaultIterations is the PBKDF2 round count. Configurable through the
// engine config, but the default must never change for a released format or
// existing sessions stop decrypting after re-initialization.
const DefaultIterations = 600_000

// salt is fixed and application-specific. Per-user salts would require key
// storage, which the engine deliberately does not have.
var salt = []byte("fractalvault.v1.session-key")

// ErrEmptyPassphrase is returned when no passphrase is supplied.
var ErrEmptyPassphrase = errors.New("keyderive: master key is required")

// DeriveKey derives the session key from passphrase using PBKDF2-SHA256.
// iterations <= 0 selects DefaultIterations.
func DeriveKey(passphrase string, iterations int) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New), nil
}
