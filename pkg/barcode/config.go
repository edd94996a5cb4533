package barcode

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config bounds barcode scanning.
type Config struct {
	PageTimeout string `toml:"page_timeout"`
	ProbePages  int    `toml:"probe_pages"`
	TempDir     string `toml:"temp_dir"`
	// MaxRenders caps concurrent page rasterizations across all scans.
	// Defaults to the number of CPUs.
	MaxRenders int `toml:"max_renders"`
}

// Env maps config fields to environment variable names.
type Env struct {
	PageTimeout string
	ProbePages  string
	TempDir     string
	MaxRenders  string
}

func (c *Config) PageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PageTimeout)
	return d
}

func (c *Config) Finalize(env *Env) error {
	if c.PageTimeout == "" {
		c.PageTimeout = "8s"
	}
	if c.ProbePages == 0 {
		c.ProbePages = 3
	}
	if c.MaxRenders == 0 {
		c.MaxRenders = runtime.NumCPU()
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.PageTimeout != "" {
		c.PageTimeout = overlay.PageTimeout
	}
	if overlay.ProbePages != 0 {
		c.ProbePages = overlay.ProbePages
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
	if overlay.MaxRenders != 0 {
		c.MaxRenders = overlay.MaxRenders
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.PageTimeout != "" {
		if v := os.Getenv(env.PageTimeout); v != "" {
			c.PageTimeout = v
		}
	}
	if env.ProbePages != "" {
		if v := os.Getenv(env.ProbePages); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.ProbePages = n
			}
		}
	}
	if env.TempDir != "" {
		if v := os.Getenv(env.TempDir); v != "" {
			c.TempDir = v
		}
	}
	if env.MaxRenders != "" {
		if v := os.Getenv(env.MaxRenders); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRenders = n
			}
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.PageTimeout)
	if err != nil {
		return fmt.Errorf("invalid page_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("page_timeout must be positive")
	}
	if c.ProbePages < 1 {
		return fmt.Errorf("probe_pages must be at least 1")
	}
	if c.MaxRenders < 1 {
		return fmt.Errorf("max_renders must be at least 1")
	}
	return nil
}
