// Package uuid provides id generation for entities and mutations.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// Valid reports whether s is a well-formed UUID v4.
func Valid(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 4
}

// Validate returns an error if s is not a valid UUID v4.
func Validate(s string) error {
	if !Valid(s) {
		return fmt.Errorf("invalid UUID v4: %q", s)
	}
	return nil
}
