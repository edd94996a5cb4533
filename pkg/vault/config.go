package vault

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

const defaultMaxPlaintextSize = "100MB"

// Config holds the encryption keys and the in-memory encryption limit.
type Config struct {
	Key              string   `toml:"key"`
	PreviousKeys     []string `toml:"previous_keys"`
	MaxPlaintextSize string   `toml:"max_plaintext_size"`
}

// Env maps config fields to environment variable names.
// PreviousKeys is read as a comma-separated list.
type Env struct {
	Key              string
	PreviousKeys     string
	MaxPlaintextSize string
}

// MaxPlaintextBytes parses MaxPlaintextSize, falling back to 100MB.
func (c *Config) MaxPlaintextBytes() int64 {
	n, err := humanize.ParseBytes(c.MaxPlaintextSize)
	if err != nil || n == 0 {
		n, _ = humanize.ParseBytes(defaultMaxPlaintextSize)
	}
	return int64(n)
}

// Finalize applies defaults, environment variable overrides, and validation.
// A missing key is a configuration error.
func (c *Config) Finalize(env *Env) error {
	if c.MaxPlaintextSize == "" {
		c.MaxPlaintextSize = defaultMaxPlaintextSize
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
	if len(overlay.PreviousKeys) > 0 {
		c.PreviousKeys = overlay.PreviousKeys
	}
	if overlay.MaxPlaintextSize != "" {
		c.MaxPlaintextSize = overlay.MaxPlaintextSize
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := os.Getenv(env.Key); env.Key != "" && v != "" {
		c.Key = v
	}
	if v := os.Getenv(env.PreviousKeys); env.PreviousKeys != "" && v != "" {
		c.PreviousKeys = strings.Split(v, ",")
	}
	if v := os.Getenv(env.MaxPlaintextSize); env.MaxPlaintextSize != "" && v != "" {
		c.MaxPlaintextSize = v
	}
}

func (c *Config) validate() error {
	if c.Key == "" {
		return ErrMissingKey
	}
	if _, err := humanize.ParseBytes(c.MaxPlaintextSize); err != nil {
		return fmt.Errorf("invalid max_plaintext_size: %w", err)
	}
	return nil
}
