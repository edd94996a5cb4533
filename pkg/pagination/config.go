// Package pagination provides page requests and results for list endpoints.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page sizes and the free-text search term accepted by list
// endpoints.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
	MaxSearchLength int `toml:"max_search_length"`
}

// Finalize applies defaults, then overrides from PREFIX_DEFAULT_PAGE_SIZE,
// PREFIX_MAX_PAGE_SIZE and PREFIX_MAX_SEARCH_LENGTH, then validates.
// An empty prefix skips the environment.
func (c *Config) Finalize(envPrefix string) error {
	c.loadDefaults()
	if envPrefix != "" {
		if err := c.loadEnv(envPrefix); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	for _, f := range c.fields(overlay) {
		if *f.src != 0 {
			*f.dst = *f.src
		}
	}
}

type intField struct {
	suffix   string
	dst, src *int
}

func (c *Config) fields(other *Config) []intField {
	return []intField{
		{"_DEFAULT_PAGE_SIZE", &c.DefaultPageSize, &other.DefaultPageSize},
		{"_MAX_PAGE_SIZE", &c.MaxPageSize, &other.MaxPageSize},
		{"_MAX_SEARCH_LENGTH", &c.MaxSearchLength, &other.MaxSearchLength},
	}
}

func (c *Config) loadDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.MaxSearchLength <= 0 {
		c.MaxSearchLength = 128
	}
}

func (c *Config) loadEnv(prefix string) error {
	for _, f := range c.fields(c) {
		v := os.Getenv(prefix + f.suffix)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix, f.suffix, err)
		}
		*f.dst = n
	}
	return nil
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 || c.MaxPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.MaxSearchLength < 1 {
		return fmt.Errorf("max_search_length must be positive")
	}
	return nil
}
