// Package config loads the optional YAML configuration file of tour-snoop.
//
// Every setting can also be given as a command-line flag; flags that are set
// explicitly take precedence over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCacheDir    = "~/.saved"
	DefaultStrategy    = "auto"
	DefaultConcurrency = 4
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "warn"
	DefaultFormat      = "text"
	DefaultColor       = "auto"
)

// Config holds the run settings.
type Config struct {
	CacheDir  string `yaml:"cache_dir"`
	StartYear int    `yaml:"start_year"`
	// ReferenceYear resolves dates printed without a year.
	ReferenceYear int           `yaml:"reference_year"`
	Strategy      string        `yaml:"strategy"`
	Concurrency   int           `yaml:"concurrency"`
	BaseURL       string        `yaml:"base_url"`
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	LogLevel      string        `yaml:"log_level"`
	Format        string        `yaml:"format"`
	Color         string        `yaml:"color"`
	MetricsFile   string        `yaml:"metrics_file"`
	Artists       []string      `yaml:"artists"`
}

// Default returns a Config with every default applied. StartYear and
// ReferenceYear are the current year.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults(time.Now())
	return c
}

// Load reads the YAML file at path and fills in defaults for anything it
// leaves out.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.ApplyDefaults(time.Now())
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// ApplyDefaults fills zero-valued settings. now decides the default start
// year.
func (c *Config) ApplyDefaults(now time.Time) {
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.StartYear == 0 {
		c.StartYear = now.Year()
	}
	if c.ReferenceYear == 0 {
		c.ReferenceYear = now.Year()
	}
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.StartYear < 1 {
		return fmt.Errorf("start_year must be positive, got %d", c.StartYear)
	}
	if c.ReferenceYear < 1 {
		return fmt.Errorf("reference_year must be positive, got %d", c.ReferenceYear)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be 'text' or 'json')", c.Format)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode %q (must be 'auto', 'always' or 'never')", c.Color)
	}
	return nil
}

// AddArtists appends names not already listed, keeping first-seen order.
func (c *Config) AddArtists(names ...string) {
	seen := make(map[string]bool, len(c.Artists)+len(names))
	out := make([]string, 0, len(c.Artists)+len(names))
	for _, n := range append(append([]string{}, c.Artists...), names...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	c.Artists = out
}
