// Package handler maps category types to the code that builds and updates
// their entities.
//
// The Registry resolves case-insensitive category-type tags to Handler
// instances, constructing each lazily through its registered Factory.
// Unknown tags are remembered so a permanently unrecognised category logs
// once and then costs a map lookup per cycle; a factory that times out is
// retried on the next cycle instead.
//
// RegisterBuiltins installs the handlers the bridge ships with: a
// SYSTEM_INFO handler that maintains device metadata and a generic
// parameter handler for the known sensor categories.
package handler
