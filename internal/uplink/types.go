package uplink

import "time"

// Snapshot is one full data batch for a polling cycle: every unit of the
// remote system together with its service-info categories.
//
// Snapshots are ephemeral. Each cycle produces a complete replacement; the
// reconciler never merges two snapshots.
type Snapshot struct {
	// SystemID identifies the Nibe Uplink system this snapshot was read from.
	SystemID int `json:"systemId"`

	// Units in the order the API returned them.
	Units []Unit `json:"units"`

	// FetchedAt is when the snapshot was assembled.
	FetchedAt time.Time `json:"fetchedAt"`
}

// Unit is one sub-component of the heat-pump system (master unit, slave
// units, etc.), a container of categories.
type Unit struct {
	// UnitID is the stable external identifier of the unit within its system.
	UnitID int `json:"systemUnitId"`

	// Name is the human-readable unit name.
	Name string `json:"name"`

	// Product is the product designation reported by the unit, if any.
	Product string `json:"product,omitempty"`

	// Categories in the order the API returned them.
	Categories []Category `json:"categories"`
}

// Category is a typed group of parameters under a unit. The ID doubles as
// the category-type tag used for handler resolution and identity.
type Category struct {
	// ID is the category-type tag, e.g. "SYSTEM_INFO" or "CLIMATE_SYSTEM".
	ID string `json:"categoryId"`

	// Name is the human-readable category name.
	Name string `json:"name"`

	// Parameters are the current readings of this category. A nil slice
	// means the parameters container was absent from the payload, which is
	// distinct from an empty one.
	Parameters []Parameter `json:"parameters"`
}

// Parameter is a single key/display-value reading within a category.
type Parameter struct {
	// Key is the machine parameter key, e.g. "COUNTRY" or "40004".
	Key string `json:"key"`

	// Name is the parameter's display title.
	Name string `json:"title,omitempty"`

	// DisplayValue is the formatted value including unit, e.g. "21.5°C".
	DisplayValue string `json:"displayValue"`

	// RawValue is the unscaled numeric value, when the parameter is numeric.
	RawValue float64 `json:"rawValue,omitempty"`

	// Unit is the unit of measurement, e.g. "°C".
	Unit string `json:"unit,omitempty"`
}

// HasParameters reports whether the category carried a parameters container.
// Categories without one are skipped by the reconciler.
func (c Category) HasParameters() bool {
	return c.Parameters != nil
}

// Parameter returns the parameter with the given key and whether it exists.
func (c Category) Parameter(key string) (Parameter, bool) {
	for _, p := range c.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}
