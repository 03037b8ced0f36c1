package translation

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// DefaultLocale is the locale every table can fall back to. It is embedded
// in the binary and always loads.
const DefaultLocale = "en"

// Node is one node of a locale tree: either a leaf string or a branch of
// named children. The two cases are mutually exclusive.
type Node struct {
	value    string
	children map[string]*Node
	leaf     bool
}

// UnmarshalJSON accepts either a string leaf or a nested object.
func (n *Node) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.value = s
		n.leaf = true
		return nil
	}

	var children map[string]*Node
	if err := json.Unmarshal(data, &children); err != nil {
		return fmt.Errorf("locale node must be string or object: %w", err)
	}
	n.children = children
	return nil
}

// Table is an immutable set of translations for one locale.
// A Table is read-only after Load, so it is safe for concurrent use.
type Table struct {
	locale string
	root   map[string]*Node
}

// Locale returns the locale code the table was loaded for. When the
// requested locale was unavailable this is the fallback actually loaded.
func (t *Table) Locale() string {
	return t.locale
}

// Translate resolves a dot-separated label against the locale tree.
//
// Resolution walks the tree segment by segment and stops at the FIRST
// string it meets: looking up "sensor.outdoor" against {"sensor": "Sensor"}
// yields "Sensor" even though a segment remains. This mirrors how category
// labels shadow their parameter labels.
//
// Returns the original label and false when no string is found on the path.
func (t *Table) Translate(label string) (string, bool) {
	node := &Node{children: t.root}

	for _, segment := range strings.Split(label, ".") {
		if node.leaf {
			break
		}
		next, ok := node.children[segment]
		if !ok || next == nil {
			return label, false
		}
		node = next
	}

	if !node.leaf {
		// Path ended on a branch; a branch has no display text.
		return label, false
	}
	return node.value, true
}

// Load builds the translation table for a locale.
//
// Lookup order:
//  1. <dir>/<locale>.json on disk, when dir is non-empty.
//  2. The embedded copy of <locale>.json.
//  3. The embedded default locale.
//
// Only a parse failure is an error; a missing file falls through to the
// next source.
func Load(dir, locale string) (*Table, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, locale+".json"))
		switch {
		case err == nil:
			return parse(locale, data)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading locale file: %w", err)
		}
	}

	if data, err := embeddedLocales.ReadFile("locales/" + locale + ".json"); err == nil {
		return parse(locale, data)
	}

	data, err := embeddedLocales.ReadFile("locales/" + DefaultLocale + ".json")
	if err != nil {
		return nil, fmt.Errorf("loading default locale: %w", err)
	}
	return parse(DefaultLocale, data)
}

func parse(locale string, data []byte) (*Table, error) {
	var root map[string]*Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	return &Table{locale: locale, root: root}, nil
}
