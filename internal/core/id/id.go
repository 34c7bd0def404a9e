// Package id defines the identifier type shared by catalogs, documents
// and register rows. Identifiers are UUIDv7, so insertion order and
// creation time agree.
package id

import (
	"github.com/google/uuid"
)

// ID is the identifier used for every stored entity.
type ID = uuid.UUID

// New returns a fresh time-ordered identifier.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to V4.
		return uuid.New()
	}
	return v7
}

// Parse validates and converts a string form, as received on the wire.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse for fixtures and tests; it panics on bad input.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero identifier.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero identifier.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
