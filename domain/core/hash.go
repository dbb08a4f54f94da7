package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashFields hashes an ordered list of string fields. The field order is part
// of the identity: reordering inputs produces a different hash.
func HashFields(fields ...string) Hash {
	return NewHash([]byte(strings.Join(fields, "\x1f")))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// InputHash fingerprints the parsed inputs of one analysis
	// (labels, distances, attribute values).
	InputHash Hash

	// DesignHash fingerprints a formula together with its permutation
	// settings (seed, permutation count, strata column).
	DesignHash Hash
)

// NewDesignHash fingerprints the determinism-relevant analysis parameters.
func NewDesignHash(formula string, seed int64, permutations int, strata string) DesignHash {
	return DesignHash(HashFields(
		formula,
		fmt.Sprintf("%d", seed),
		fmt.Sprintf("%d", permutations),
		strata,
	))
}
