package filing

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds filing engine settings.
type Config struct {
	// FallbackYears is the retention applied to a closed file whose
	// entries yield no date.
	FallbackYears int `toml:"fallback_years"`
	RetryAttempts int `toml:"retry_attempts"`
}

// Env maps config fields to environment variable names.
type Env struct {
	FallbackYears string
	RetryAttempts string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.FallbackYears != 0 {
		c.FallbackYears = overlay.FallbackYears
	}
	if overlay.RetryAttempts != 0 {
		c.RetryAttempts = overlay.RetryAttempts
	}
}

func (c *Config) loadDefaults() {
	if c.FallbackYears == 0 {
		c.FallbackYears = 10
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 5
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.FallbackYears != "" {
		if v := os.Getenv(env.FallbackYears); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.FallbackYears = n
			}
		}
	}
	if env.RetryAttempts != "" {
		if v := os.Getenv(env.RetryAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RetryAttempts = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.FallbackYears < 0 {
		return fmt.Errorf("fallback_years must not be negative")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be positive")
	}
	return nil
}
