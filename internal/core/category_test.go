package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	if len(cat) == 0 {
		t.Fatal("default catalog is empty")
	}
	seen := map[string]bool{}
	for _, c := range cat {
		if c.Code == "" || c.Label == "" {
			t.Fatalf("incomplete category: %+v", c)
		}
		if seen[c.Code] {
			t.Fatalf("duplicate code %q", c.Code)
		}
		seen[c.Code] = true
		if err := c.Direction.Validate(); err != nil {
			t.Fatalf("category %q: %v", c.Code, err)
		}
	}
	if len(cat.ByDirection(Income)) == 0 {
		t.Fatal("no income categories in default catalog")
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path falls back to defaults", func(t *testing.T) {
		cat, err := LoadCatalog("")
		if err != nil {
			t.Fatalf("LoadCatalog: %v", err)
		}
		if len(cat) != len(DefaultCatalog()) {
			t.Fatalf("got %d categories, want %d", len(cat), len(DefaultCatalog()))
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.json")
		data := `[{"code":"rent","label":"Rent","icon":"🏠","direction":"expense"}]`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		cat, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog: %v", err)
		}
		if len(cat) != 1 || cat[0].Code != "rent" {
			t.Fatalf("unexpected catalog: %+v", cat)
		}
	})

	t.Run("invalid direction rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.json")
		data := `[{"code":"rent","label":"Rent","direction":"sideways"}]`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("expected error for invalid direction")
		}
	})

	t.Run("empty code rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.json")
		data := `[{"code":"","label":"Rent","direction":"expense"}]`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadCatalog(path); err == nil {
			t.Fatal("expected error for empty code")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
