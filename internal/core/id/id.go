// Package id provides entity identifiers.
//
// Identifiers are UUIDv7: the leading timestamp bits make movements and
// documents sort chronologically and keep PostgreSQL B-tree inserts local.
package id

import (
	"github.com/google/uuid"
)

// ID identifies every persisted entity.
type ID = uuid.UUID

// New generates a time-ordered identifier. Falls back to a random UUID in
// the unlikely case V7 generation fails.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse validates and converts a string identifier.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string identifier, panicking on error. For tests.
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
