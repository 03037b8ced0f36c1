package handler

import "errors"

// Domain errors for the handler package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrHandlerNotFound is returned when no handler serves a category type.
	ErrHandlerNotFound = errors.New("handler: not found")

	// ErrHandlerExists is returned when registering a tag twice.
	ErrHandlerExists = errors.New("handler: already registered")

	// ErrFactoryTimeout is returned when a factory does not finish within
	// the resolve timeout. Unlike an unknown tag this is not cached; the
	// next cycle retries the factory.
	ErrFactoryTimeout = errors.New("handler: factory timed out")
)
