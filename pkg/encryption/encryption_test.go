package encryption

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testKey(tb testing.TB) []byte {
	tb.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		tb.Fatalf("failed to generate test key: %v", err)
	}
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("This is test content for the seal pipeline. It should be long enough to exercise compression.")

	sealed, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed payload contains the plaintext")
	}

	opened, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", opened, plaintext)
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same input")

	first, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	second, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two seals of the same plaintext produced identical ciphertexts")
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal(testKey(t), []byte("payload"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	_, err = Open(testKey(t), sealed)
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("expected ErrDecrypt for wrong key, got %v", err)
	}
}

func TestOpenCorruptedCiphertext(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal(key, []byte("payload"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff

	_, err = Open(key, sealed)
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("expected ErrDecrypt for corrupted ciphertext, got %v", err)
	}
}

func TestOpenTruncatedPayload(t *testing.T) {
	_, err := Open(testKey(t), []byte("short"))
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("expected ErrDecrypt for truncated payload, got %v", err)
	}
}

func TestSealEmptyPlaintext(t *testing.T) {
	key := testKey(t)
	sealed, err := Seal(key, nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	opened, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(opened) != 0 {
		t.Errorf("expected empty plaintext, got %d bytes", len(opened))
	}
}
