// Package record defines the linked-account record the engine stores and its
// canonical serialized form. The engine treats the record as an opaque
// payload; only Category is inspected, for the complexity heuristic and
// per-category statistics.
package record

import (
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"time"
)

// Category is the closed set of linked-account kinds. The heuristic and the
// statistics switch over it exhaustively, so an unknown tag fails at decode
// time instead of silently falling through a string comparison.
type Category uint8

const (
	CategoryTypeA Category = iota
	CategoryTypeB
	CategoryTypeC
	CategoryTypeD
)

var categoryTags = map[Category]string{
	CategoryTypeA: "type-a",
	CategoryTypeB: "type-b",
	CategoryTypeC: "type-c",
	CategoryTypeD: "type-d",
}

// Categories returns all known categories in a fixed order, mainly for
// statistics iteration.
func Categories() []Category {
	return []Category{CategoryTypeA, CategoryTypeB, CategoryTypeC, CategoryTypeD}
}

func (c Category) String() string {
	if tag, ok := categoryTags[c]; ok {
		return tag
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory maps a wire tag back to its Category.
func ParseCategory(tag string) (Category, error) {
	for c, t := range categoryTags {
		if t == tag {
			return c, nil
		}
	}
	return 0, fmt.Errorf("record: unknown category %q", tag)
}

// MarshalText encodes the category as its wire tag.
func (c Category) MarshalText() ([]byte, error) {
	tag, ok := categoryTags[c]
	if !ok {
		return nil, fmt.Errorf("record: unknown category %d", uint8(c))
	}
	return []byte(tag), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// LinkedAccountRecord is the flat record supplied by the account-linking
// collaborator. Address and PublicKey are optional; Provider is an opaque
// metadata bag.
type LinkedAccountRecord struct {
	Category  Category          `json:"category"`
	Address   string            `json:"address,omitempty"`
	PublicKey string            `json:"publicKey,omitempty"`
	Provider  map[string]string `json:"provider,omitempty"`
	LinkedAt  time.Time         `json:"linkedAt"`
}

// Encode serializes the record into its canonical byte form. encoding/json
// emits map keys in sorted order, so the same record always produces the
// same bytes; the placement digest depends on that.
func (r LinkedAccountRecord) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

// Decode reverses Encode.
func Decode(data []byte) (LinkedAccountRecord, error) {
	var r LinkedAccountRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return LinkedAccountRecord{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// Digest returns the SHA-512 digest of the canonical serialization. The
// placement of a node in the address space is derived from this, so
// identical records always land on the same coordinate.
func (r LinkedAccountRecord) Digest() ([sha512.Size]byte, error) {
	data, err := r.Encode()
	if err != nil {
		return [sha512.Size]byte{}, err
	}
	return sha512.Sum512(data), nil
}

// Equal reports whether two records carry the same content. Timestamps are
// compared with time.Equal so wall-clock representation differences do not
// matter.
func (r LinkedAccountRecord) Equal(other LinkedAccountRecord) bool {
	if r.Category != other.Category || r.Address != other.Address || r.PublicKey != other.PublicKey {
		return false
	}
	if !r.LinkedAt.Equal(other.LinkedAt) {
		return false
	}
	if len(r.Provider) != len(other.Provider) {
		return false
	}
	for k, v := range r.Provider {
		if other.Provider[k] != v {
			return false
		}
	}
	return true
}
