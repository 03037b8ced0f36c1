package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PluginName prefixes every identity seed so entity IDs never collide with
// accessories published by other bridges on the same broker.
const PluginName = "homebridge-nibe"

// idNamespace is the fixed UUIDv5 namespace for entity identities.
// Changing it would orphan every persisted entity, so it never changes.
var idNamespace = uuid.MustParse("8d4c9f06-31f2-4a5e-9c47-2b1ce0a46d11")

// Identity derives the deterministic entity ID for a (unit, category-type)
// pair. The category type is lower-cased first, so tags differing only in
// case map to the same entity.
//
// The same inputs always produce the same ID, on every run and every host.
func Identity(unitID int, categoryType string) string {
	seed := fmt.Sprintf("%s-%d-%s", PluginName, unitID, strings.ToLower(categoryType))
	return uuid.NewSHA1(idNamespace, []byte(seed)).String()
}
