package scanner

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/dossier/internal/scopes"
)

// DefaultExtensions is the allow-list applied when none is configured.
var DefaultExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".jpg", ".jpeg", ".png", ".tif", ".tiff",
	".txt", ".csv", ".xml",
}

// Config controls archive and manual-input scans.
type Config struct {
	ArchiveRoot   string   `toml:"archive_root"`
	ManualRoot    string   `toml:"manual_root"`
	ManualScope   string   `toml:"manual_scope"`
	Extensions    []string `toml:"extensions"`
	Workers       int      `toml:"workers"`
	SplitBundles  *bool    `toml:"split_bundles"`
	LockTTL       string   `toml:"lock_ttl"`
	FlushInterval string   `toml:"flush_interval"`
	RetryAttempts int      `toml:"retry_attempts"`
	RetryBackoff  string   `toml:"retry_backoff"`
}

// Env maps config fields to environment variable names.
// Extensions is read as a comma-separated list.
type Env struct {
	ArchiveRoot   string
	ManualRoot    string
	ManualScope   string
	Extensions    string
	Workers       string
	SplitBundles  string
	LockTTL       string
	FlushInterval string
	RetryAttempts string
	RetryBackoff  string
}

// SplitEnabled reports whether multi-document bundles are split per page.
// An unset value is false.
func (c *Config) SplitEnabled() bool {
	return c.SplitBundles != nil && *c.SplitBundles
}

func (c *Config) LockTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockTTL)
	return d
}

func (c *Config) FlushIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.FlushInterval)
	return d
}

func (c *Config) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBackoff)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. SplitBundles is taken
// whenever the overlay sets it, so an overlay can turn splitting off.
func (c *Config) Merge(overlay *Config) {
	if overlay.ArchiveRoot != "" {
		c.ArchiveRoot = overlay.ArchiveRoot
	}
	if overlay.ManualRoot != "" {
		c.ManualRoot = overlay.ManualRoot
	}
	if overlay.ManualScope != "" {
		c.ManualScope = overlay.ManualScope
	}
	if len(overlay.Extensions) > 0 {
		c.Extensions = overlay.Extensions
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.SplitBundles != nil {
		split := *overlay.SplitBundles
		c.SplitBundles = &split
	}
	if overlay.LockTTL != "" {
		c.LockTTL = overlay.LockTTL
	}
	if overlay.FlushInterval != "" {
		c.FlushInterval = overlay.FlushInterval
	}
	if overlay.RetryAttempts != 0 {
		c.RetryAttempts = overlay.RetryAttempts
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
}

func (c *Config) loadDefaults() {
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	if c.Workers == 0 {
		c.Workers = min(runtime.NumCPU(), 8)
	}
	if c.LockTTL == "" {
		c.LockTTL = "30m"
	}
	if c.FlushInterval == "" {
		c.FlushInterval = "2s"
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ArchiveRoot != "" {
		if v := os.Getenv(env.ArchiveRoot); v != "" {
			c.ArchiveRoot = v
		}
	}
	if env.ManualRoot != "" {
		if v := os.Getenv(env.ManualRoot); v != "" {
			c.ManualRoot = v
		}
	}
	if env.ManualScope != "" {
		if v := os.Getenv(env.ManualScope); v != "" {
			c.ManualScope = v
		}
	}
	if env.Extensions != "" {
		if v := os.Getenv(env.Extensions); v != "" {
			exts := strings.Split(v, ",")
			for i, e := range exts {
				exts[i] = strings.TrimSpace(e)
			}
			c.Extensions = exts
		}
	}
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.SplitBundles != "" {
		if v := os.Getenv(env.SplitBundles); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.SplitBundles = &b
			}
		}
	}
	if env.LockTTL != "" {
		if v := os.Getenv(env.LockTTL); v != "" {
			c.LockTTL = v
		}
	}
	if env.FlushInterval != "" {
		if v := os.Getenv(env.FlushInterval); v != "" {
			c.FlushInterval = v
		}
	}
	if env.RetryAttempts != "" {
		if v := os.Getenv(env.RetryAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RetryAttempts = n
			}
		}
	}
	if env.RetryBackoff != "" {
		if v := os.Getenv(env.RetryBackoff); v != "" {
			c.RetryBackoff = v
		}
	}
}

func (c *Config) validate() error {
	if c.ArchiveRoot == "" {
		return fmt.Errorf("archive_root required")
	}
	if c.ManualRoot != "" && !scopes.ValidCode(c.ManualScope) {
		return fmt.Errorf("manual_scope must be an 8-digit scope code when manual_root is set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	for name, v := range map[string]string{
		"lock_ttl":       c.LockTTL,
		"flush_interval": c.FlushInterval,
		"retry_backoff":  c.RetryBackoff,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
