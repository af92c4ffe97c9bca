// Package encryption implements the seal pipeline for stored records:
// LZMA compression followed by XChaCha20-Poly1305 authenticated encryption.
// Compression runs before encryption because ciphertext does not compress.
package encryption

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required symmetric key length in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrDecrypt is returned when a sealed payload cannot be opened, either
// because the key is wrong or the ciphertext is corrupted.
var ErrDecrypt = errors.New("encryption: ciphertext unreadable")

// Seal compresses plaintext and encrypts it under key. The random nonce is
// prepended to the returned ciphertext.
func Seal(key, plaintext []byte) ([]byte, error) {
	compressed, err := compressWithLzma(plaintext)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, compressed, nil), nil
}

// Open reverses Seal. Any authentication or decompression failure is
// reported as ErrDecrypt; callers decide whether that is fatal (single-item
// retrieval) or skippable (bulk export).
func Open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: payload shorter than nonce", ErrDecrypt)
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]

	compressed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	plaintext, err := decompressWithLzma(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

func compressWithLzma(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressWithLzma(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
