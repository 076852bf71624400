// Package config loads the prune rules file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/calumari/bsonwalk/prune"
)

// Config is the YAML rules file. Keys absent from the file keep their
// defaults.
type Config struct {
	Remove   []string       `yaml:"remove"`
	Preserve []string       `yaml:"preserve"`
	Content  *ContentConfig `yaml:"content,omitempty"`
}

// ContentConfig configures the embedded element filter. Empty fields keep
// their defaults.
type ContentConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Field       string `yaml:"field,omitempty"`
	Elements    string `yaml:"elements,omitempty"`
	AssetName   string `yaml:"assetName,omitempty"`
	InventoryID string `yaml:"inventoryId,omitempty"`
	SearchKey   string `yaml:"searchKey,omitempty"`
}

// Default returns the built-in rules.
func Default() *Config {
	rules := prune.DefaultRules()
	return &Config{
		Remove:   rules.Removed(),
		Preserve: rules.Preserved(),
	}
}

// Load loads configuration from a file path.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects empty field names.
func (c *Config) Validate() error {
	var errs []error
	for i, k := range c.Remove {
		if k == "" {
			errs = append(errs, fmt.Errorf("remove[%d]: empty field name", i))
		}
	}
	for i, k := range c.Preserve {
		if k == "" {
			errs = append(errs, fmt.Errorf("preserve[%d]: empty field name", i))
		}
	}
	return errors.Join(errs...)
}

// Rules builds the prune rules.
func (c *Config) Rules() prune.Rules {
	return prune.NewRules(c.Remove, c.Preserve)
}

// ContentEnabled reports whether the embedded element filter runs.
func (c *Config) ContentEnabled() bool {
	if c.Content == nil || c.Content.Enabled == nil {
		return true
	}
	return *c.Content.Enabled
}

// ContentFilter builds the embedded element filter. Fields left empty in
// the file keep the values of prune.DefaultContentFilter.
func (c *Config) ContentFilter() prune.ContentFilter {
	f := prune.DefaultContentFilter()
	if c.Content == nil {
		return f
	}
	setIfNotEmpty(&f.Field, c.Content.Field)
	setIfNotEmpty(&f.Elements, c.Content.Elements)
	setIfNotEmpty(&f.AssetName, c.Content.AssetName)
	setIfNotEmpty(&f.InventoryID, c.Content.InventoryID)
	setIfNotEmpty(&f.SearchKey, c.Content.SearchKey)
	return f
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
