package entity

import (
	"errors"
	"fmt"
)

// Domain errors for the entity package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrEntityNotFound is returned when an entity lookup misses.
	ErrEntityNotFound = errors.New("entity: not found")

	// ErrEntityExists is returned when creating an entity whose ID is taken.
	ErrEntityExists = errors.New("entity: already exists")

	// ErrInvalidEntity is returned when an entity fails validation.
	ErrInvalidEntity = errors.New("entity: invalid")
)

func wrapInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEntity, reason)
}
