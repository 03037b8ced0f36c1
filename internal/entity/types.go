package entity

import "time"

// Entity is one long-lived registry entry backing a published accessory.
// An entity corresponds to exactly one (unit, category-type) pair of the
// heat-pump system; its ID is deterministic, so the same pair always maps
// to the same entity across restarts.
type Entity struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// Source coordinates within the heat-pump system.
	UnitID       int    `json:"unit_id"`
	CategoryID   string `json:"category_id"`
	CategoryType string `json:"category_type"`

	// Device metadata, filled from the snapshot descriptor where known.
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`

	// Current state as key/value pairs derived from category parameters.
	State          State      `json:"state"`
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State holds entity state as key-value pairs.
type State = map[string]any

// DeepCopy creates a complete independent copy of the Entity.
// The state map is cloned so modifications to the copy do not affect the
// original. This is essential for cache isolation.
func (e *Entity) DeepCopy() *Entity {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.State = deepCopyMap(e.State)

	// Pointer fields (*time.Time) don't need deep copy because time.Time
	// is immutable in Go.

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Validate checks that the entity carries the fields persistence and
// publishing require. Returns ErrInvalidEntity wrapped with the reason.
func (e *Entity) Validate() error {
	switch {
	case e.ID == "":
		return wrapInvalid("missing id")
	case e.Name == "":
		return wrapInvalid("missing name")
	case e.CategoryType == "":
		return wrapInvalid("missing category type")
	case e.UnitID < 0:
		return wrapInvalid("negative unit id")
	}
	return nil
}
