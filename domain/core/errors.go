package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrFormat   = errors.New("malformed distance matrix")
	ErrJoin     = errors.New("sample has no metadata match")
	ErrNotFound = errors.New("resource not found")

	// Analysis errors
	ErrDesign    = errors.New("untestable design")
	ErrDimension = errors.New("dimension mismatch")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context

// NewFormatError reports a malformed distance-matrix input, pointing at the
// offending line (1-based, counting the header).
func NewFormatError(file string, line int, reason string) error {
	if file == "" {
		return fmt.Errorf("%w: line %d: %s", ErrFormat, line, reason)
	}
	return fmt.Errorf("%w: %s:%d: %s", ErrFormat, file, line, reason)
}

// NewJoinError reports a sample label that has no row in the metadata table.
func NewJoinError(label string) error {
	return fmt.Errorf("%w: sample %q", ErrJoin, label)
}

// NewDesignError reports a formula term that cannot be tested on the given
// subset, naming the term.
func NewDesignError(term string, reason string) error {
	return fmt.Errorf("%w: term %q: %s", ErrDesign, term, reason)
}

// NewDimensionError reports disagreement between a distance matrix and its
// attribute table.
func NewDimensionError(matrixN, tableN int) error {
	return fmt.Errorf("%w: matrix has %d samples, attribute table has %d rows", ErrDimension, matrixN, tableN)
}

// NewValidationError reports an invalid field on a domain object.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers

func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

func IsJoinError(err error) bool {
	return errors.Is(err, ErrJoin)
}

func IsDesignError(err error) bool {
	return errors.Is(err, ErrDesign)
}

func IsDimensionError(err error) bool {
	return errors.Is(err, ErrDimension)
}
