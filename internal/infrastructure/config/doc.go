// Package config loads and validates the Nibe bridge configuration.
//
// Configuration comes from a single YAML file with three layers of
// precedence: hardcoded defaults, file values, then NIBE_* environment
// variable overrides (used for secrets like the Uplink client secret).
//
// Validation failures at load time are fatal by design: a bridge with bad
// credentials or no system ID cannot do anything useful, so bootstrap
// refuses to start rather than limping along.
package config
