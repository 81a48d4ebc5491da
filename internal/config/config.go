// Package config handles the .catview directory created per project: the
// catalog server connection, the forms directory, and a handful of
// persisted preferences.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// CatviewDir is the name of the directory we create in each project.
	CatviewDir = ".catview"

	defaultCategory = "individuals"
)

const defaultProjectConfigYAML = `# catview project configuration
version: 1

server:
  # Base REST URL of the catalog service,
  # e.g. https://catalog.example.org/webservices/rest/v2
  url: ""
  # Fully-qualified study id, e.g. demo@family:corpasome
  study: ""

forms:
  # Form definitions are YAML files under .catview/forms
  default: ""

# Resource categories offered in the browser menu.
categories:
  - individuals
  - samples
  - files
  - cohorts
`

// ServerConfig declares how to reach the catalog service.
type ServerConfig struct {
	URL   string `yaml:"url"`
	Study string `yaml:"study,omitempty"`
}

// FormsConfig captures form preferences.
type FormsConfig struct {
	Default string `yaml:"default,omitempty"`
}

// ProjectConfig models .catview/config.yaml.
type ProjectConfig struct {
	Version    int          `yaml:"version"`
	Server     ServerConfig `yaml:"server"`
	Forms      FormsConfig  `yaml:"forms"`
	Categories []string     `yaml:"categories,omitempty"`
}

// Config holds the runtime configuration for catview.
type Config struct {
	// ProjectDir is the directory the user ran `catview` from.
	ProjectDir string

	// CatviewProjectDir is ProjectDir/.catview.
	CatviewProjectDir string

	Project ProjectConfig
}

// InitCatviewDir creates the .catview directory structure in the given
// project directory. Called on startup.
//
// Structure created:
//
//	.catview/
//	├── forms/    <- YAML form definitions
//	├── logs/     <- journey log
//	└── config.yaml
func InitCatviewDir(projectDir string) error {
	catviewDir := filepath.Join(projectDir, CatviewDir)
	dirs := []string{
		filepath.Join(catviewDir, "forms"),
		filepath.Join(catviewDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(catviewDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		CatviewProjectDir: filepath.Join(projectDir, CatviewDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FormsDir returns the directory holding YAML form definitions.
func (c *Config) FormsDir() string {
	return filepath.Join(c.CatviewProjectDir, "forms")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.CatviewProjectDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.CatviewProjectDir, "config.yaml")
}

// ServerURL returns the configured catalog base URL.
func (c *Config) ServerURL() string {
	return strings.TrimSpace(c.Project.Server.URL)
}

// Study returns the configured study identifier.
func (c *Config) Study() string {
	return strings.TrimSpace(c.Project.Server.Study)
}

// DefaultForm returns the configured default form ID.
func (c *Config) DefaultForm() string {
	return strings.TrimSpace(c.Project.Forms.Default)
}

// Categories returns the browsable resource categories, never empty.
func (c *Config) Categories() []string {
	var categories []string
	for _, cat := range c.Project.Categories {
		trimmed := strings.TrimSpace(cat)
		if trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	if len(categories) == 0 {
		return []string{defaultCategory}
	}
	return categories
}

// SetDefaultForm updates the default form ID and persists the value back
// to .catview/config.yaml.
func (c *Config) SetDefaultForm(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: form id is required")
	}
	c.Project.Forms.Default = id
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:    1,
		Categories: []string{"individuals", "samples", "files", "cohorts"},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if len(pc.Categories) == 0 {
		pc.Categories = defaultProjectConfig().Categories
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Server.URL = strings.TrimRight(strings.TrimSpace(pc.Server.URL), "/")
	pc.Server.Study = strings.TrimSpace(pc.Server.Study)
	pc.Forms.Default = strings.TrimSpace(pc.Forms.Default)
	var categories []string
	for _, cat := range pc.Categories {
		trimmed := strings.TrimSpace(cat)
		if trimmed != "" {
			categories = append(categories, strings.ToLower(trimmed))
		}
	}
	pc.Categories = categories
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.CatviewProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure catview dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
