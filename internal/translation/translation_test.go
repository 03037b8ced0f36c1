package translation

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLocale(t *testing.T, dir, locale, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, locale+".json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestTable_Translate(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "test", `{
		"a": "Y",
		"status": {
			"label": "Status",
			"40004": "Outdoor temperature",
			"nested": {"deep": "Deep value"}
		}
	}`)

	table, err := Load(dir, "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		label  string
		want   string
		wantOK bool
	}{
		{"top-level leaf", "a", "Y", true},
		{"nested leaf", "status.40004", "Outdoor temperature", true},
		{"deep leaf", "status.nested.deep", "Deep value", true},
		{"string shadows remaining segments", "a.b", "Y", true},
		{"string shadows long tail", "a.b.c.d", "Y", true},
		{"missing key", "missing", "missing", false},
		{"missing nested key", "status.99999", "status.99999", false},
		{"path ends on branch", "status.nested", "status.nested", false},
		{"empty label", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Translate(tt.label)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Translate(%q) = (%q, %v), want (%q, %v)",
					tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLoad_DiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "en", `{"status": {"label": "Custom status"}}`)

	table, err := Load(dir, "en")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, ok := table.Translate("status.label"); !ok || got != "Custom status" {
		t.Errorf("Translate(status.label) = (%q, %v), want disk override", got, ok)
	}
}

func TestLoad_EmbeddedLocale(t *testing.T) {
	// No directory: the embedded sv.json serves the request.
	table, err := Load("", "sv")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Locale() != "sv" {
		t.Errorf("Locale() = %q, want sv", table.Locale())
	}
	if got, ok := table.Translate("hot_water.label"); !ok || got != "Varmvatten" {
		t.Errorf("Translate(hot_water.label) = (%q, %v)", got, ok)
	}
}

func TestLoad_FallsBackToDefault(t *testing.T) {
	table, err := Load(t.TempDir(), "xx")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Locale() != DefaultLocale {
		t.Errorf("Locale() = %q, want %q", table.Locale(), DefaultLocale)
	}
	if got, ok := table.Translate("status.40004"); !ok || got != "Outdoor temperature" {
		t.Errorf("Translate(status.40004) = (%q, %v)", got, ok)
	}
}

func TestLoad_EmptyLocaleUsesDefault(t *testing.T) {
	table, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Locale() != DefaultLocale {
		t.Errorf("Locale() = %q, want %q", table.Locale(), DefaultLocale)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "bad", `{"a": [1, 2]}`)

	if _, err := Load(dir, "bad"); err == nil {
		t.Error("Load() should reject locale nodes that are neither string nor object")
	}

	writeLocale(t, dir, "broken", `{not json`)
	if _, err := Load(dir, "broken"); err == nil {
		t.Error("Load() should reject malformed JSON")
	}
}
