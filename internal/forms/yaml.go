package forms

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile pairs a parsed form definition with its on-disk source.
type DefinitionFile struct {
	Definition FormConfig
	Path       string
}

// ParseDefinitionYAML decodes and validates a single form definition
// payload. Definitions are pure data: behavior is referenced through
// registry keys, never embedded.
func ParseDefinitionYAML(data []byte) (FormConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return FormConfig{}, fmt.Errorf("forms: definition payload is empty")
	}
	var cfg FormConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FormConfig{}, fmt.Errorf("forms: decode definition: %w", err)
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return FormConfig{}, err
	}
	return cfg, nil
}

// LoadDefinitionFile reads a YAML file from disk and returns the parsed
// form definition.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("forms: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DefinitionFile{}, fmt.Errorf("forms: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("forms: read %s: %w", path, err)
	}
	cfg, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("forms: %s: %w", path, err)
	}
	if cfg.ID == "" {
		cfg.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return DefinitionFile{Definition: cfg, Path: path}, nil
}

// LoadDefinitionDir scans a directory for *.yaml form definitions.
// Missing directories are treated as "no forms" to simplify startup.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("forms: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isYAMLFile(entry.Name()) {
			continue
		}
		def, err := LoadDefinitionFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, nil
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Path < defs[j].Path })
	return defs, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
