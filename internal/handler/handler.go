package handler

import (
	"github.com/vingarzan/homebridge-nibe/internal/entity"
	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

// Translator resolves display labels. Satisfied by *translation.Table.
type Translator interface {
	Translate(label string) (string, bool)
}

// Logger defines the logging interface used by handlers and the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps carries the shared dependencies a factory may wire into its handler.
// Handlers receive the translator here rather than reaching for a global,
// so tests can substitute a fixed table.
type Deps struct {
	Translator Translator
	Logger     Logger
}

// Handler turns category occurrences into entities and keeps them current.
//
// Handlers are resolved once per category type and reused across polling
// cycles, so implementations must be safe for sequential reuse and must not
// retain references to the snapshots they are given.
type Handler interface {
	// Build creates the entity for a category occurrence seen for the
	// first time. The returned entity carries its deterministic ID.
	Build(unit uplink.Unit, category uplink.Category, descriptor uplink.Descriptor) (*entity.Entity, error)

	// Update refreshes an existing entity in place from the latest
	// occurrence. Returns true when the entity changed and needs to be
	// persisted and republished.
	Update(e *entity.Entity, unit uplink.Unit, category uplink.Category) (bool, error)
}

// Factory constructs a handler instance. Factories run once per category
// type, on first resolution; the instance is cached for the process
// lifetime.
type Factory func(deps Deps) (Handler, error)
