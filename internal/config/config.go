// Package config produces the effective workflow configuration: the external
// repository's shipped defaults with caller overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/emlab/techdata/internal/fileutil"
)

const (
	// DefaultsFileName is the configuration document shipped by the
	// external workflow repository.
	DefaultsFileName = "config.yaml"

	// MergedFileName is the materialized configuration the engine is
	// pointed at. The name matches what the workflow expects to find.
	MergedFileName = "__config.yaml"
)

// Merger builds and materializes the effective configuration for one
// checkout directory.
type Merger struct {
	dir string
}

// NewMerger creates a merger for the given checkout directory.
func NewMerger(dir string) *Merger {
	return &Merger{dir: dir}
}

// MergedPath returns the path of the materialized configuration file.
func (m *Merger) MergedPath() string {
	return filepath.Join(m.dir, MergedFileName)
}

// Effective loads the checkout's default configuration and applies the given
// overrides. The merge is shallow: an override key replaces the default value
// wholesale, nested structures are not descended into. Override keys are not
// validated against any schema; unknown keys pass through to the engine.
func (m *Merger) Effective(overrides map[string]any) (map[string]any, error) {
	defaults, err := m.loadDefaults()
	if err != nil {
		return nil, err
	}
	return Merge(defaults, overrides), nil
}

// loadDefaults reads the shipped configuration document. A checkout without
// one yields an empty document; the engine then runs on its own defaults.
func (m *Merger) loadDefaults() (map[string]any, error) {
	path := filepath.Join(m.dir, DefaultsFileName)
	if !fileutil.FileExists(path) {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults %q: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode defaults %q: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Write serializes the document and writes it to the checkout's expected
// configuration path, overwriting any existing file.
func (m *Merger) Write(doc map[string]any) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.MergedPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config %q: %w", m.MergedPath(), err)
	}
	return nil
}

// Merge applies overrides on top of defaults, one level deep.
func Merge(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Marshal produces the canonical serialized form of a configuration
// document. Map keys are emitted in a stable order, so equal documents
// always serialize to equal bytes.
func Marshal(doc map[string]any) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
