package config

import (
	"fmt"
	"os"

	"backoffice/internal/models"

	"gopkg.in/yaml.v2"
)

type catalogFile struct {
	Catalog models.Catalog `yaml:"catalog"`
}

// LoadCatalog reads the choice lists from path. An empty path yields the built-in catalog.
func LoadCatalog(path string) (*models.Catalog, error) {
	if path == "" {
		return models.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := file.Catalog.Validate(); err != nil {
		return nil, err
	}

	return &file.Catalog, nil
}
