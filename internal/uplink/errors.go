package uplink

import "errors"

// Domain errors for the uplink package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrNoSession is returned when no persisted token exists and no
	// authorization code is configured to obtain one.
	ErrNoSession = errors.New("uplink: no session and no authorization code")

	// ErrUnauthorized is returned when the API rejects the token.
	ErrUnauthorized = errors.New("uplink: unauthorized")

	// ErrRequestFailed is returned when an API request fails.
	ErrRequestFailed = errors.New("uplink: request failed")

	// ErrAlreadyRunning is returned when Start is called on a running fetcher.
	ErrAlreadyRunning = errors.New("uplink: fetcher already running")
)
