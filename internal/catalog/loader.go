package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"declbot/internal/domain"
	"declbot/internal/port"
)

// Source values accepted by Load.
const (
	SourceBuiltin = "builtin"
	SourceYAML    = "yaml"
	SourceDB      = "db"
)

type yamlFile struct {
	Products []domain.CatalogEntry `yaml:"products"`
}

// LoadYAML reads a catalog from a YAML file with a top-level "products" list.
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrInvalidCatalog, path, err)
	}
	return New(f.Products)
}

// Load builds the catalog from the configured source. repo is only consulted for SourceDB.
func Load(ctx context.Context, source, path string, repo port.CatalogRepository) (*Catalog, error) {
	switch source {
	case "", SourceBuiltin:
		return Default(), nil
	case SourceYAML:
		return LoadYAML(path)
	case SourceDB:
		if repo == nil {
			return nil, fmt.Errorf("catalog source %q requires a database", source)
		}
		entries, err := repo.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog entries: %w", err)
		}
		return New(entries)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", source)
	}
}
