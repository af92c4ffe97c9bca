package keyderive

import (
	"bytes"
	"errors"
	"testing"
)

// Low round count for tests; the default is deliberately expensive.
const testIterations = 1000

func TestDeriveKeyDeterministic(t *testing.T) {
	first, err := DeriveKey("secret123", testIterations)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	second, err := DeriveKey("secret123", testIterations)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same passphrase produced different keys")
	}
}

func TestDeriveKeySize(t *testing.T) {
	key, err := DeriveKey("secret123", testIterations)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(key) != KeySize {
		t.Errorf("expected %d byte key, got %d", KeySize, len(key))
	}
}

func TestDeriveKeyDistinctPassphrases(t *testing.T) {
	a, err := DeriveKey("secret123", testIterations)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	b, err := DeriveKey("secret124", testIterations)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different passphrases produced the same key")
	}
}

func TestDeriveKeyEmptyPassphrase(t *testing.T) {
	_, err := DeriveKey("", testIterations)
	if !errors.Is(err, ErrEmptyPassphrase) {
		t.Errorf("expected ErrEmptyPassphrase, got %v", err)
	}
}

func TestDeriveKeyIterationsChangeKey(t *testing.T) {
	a, err := DeriveKey("secret123", 1000)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	b, err := DeriveKey("secret123", 2000)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("different iteration counts produced the same key")
	}
}
