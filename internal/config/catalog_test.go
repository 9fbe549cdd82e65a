package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"backoffice/internal/models"
)

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Services) != 9 {
		t.Errorf("expected 9 default services, got %d", len(c.Services))
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
catalog:
  preset_amounts: [100, 150]
  durations: [45]
  payment_options: ["Cash"]
  profit_options: ["Shared"]
  staff_options: ["Mia"]
  services:
    - id: facial
      name: Facial
  preset_times: ["9:00 AM"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name, ok := c.ServiceName("facial"); !ok || name != "Facial" {
		t.Errorf("expected Facial service, got %q", name)
	}
	if c.Durations[0] != 45 {
		t.Errorf("expected duration 45, got %d", c.Durations[0])
	}
}

func TestLoadCatalogInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("catalog:\n  preset_amounts: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestShippedCatalogMatchesDefault(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "configs", "catalog.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(c, models.DefaultCatalog()) {
		t.Errorf("configs/catalog.yaml drifted from the built-in catalog:\n%+v", c)
	}
}
