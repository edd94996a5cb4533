package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEmployeesCacheSize = "DOSSIER_EMPLOYEES_CACHE_SIZE"
	EnvEmployeesCacheTTL  = "DOSSIER_EMPLOYEES_CACHE_TTL"
)

// EmployeesConfig sizes the identity resolver's cache.
type EmployeesConfig struct {
	CacheSize int    `toml:"cache_size"`
	CacheTTL  string `toml:"cache_ttl"`
}

func (c *EmployeesConfig) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

func (c *EmployeesConfig) Finalize() error {
	if c.CacheSize == 0 {
		c.CacheSize = 4096
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "10m"
	}

	if v := os.Getenv(EnvEmployeesCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheSize = n
		}
	}
	if v := os.Getenv(EnvEmployeesCacheTTL); v != "" {
		c.CacheTTL = v
	}

	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive")
	}
	if d, err := time.ParseDuration(c.CacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid cache_ttl: %q", c.CacheTTL)
	}
	return nil
}

func (c *EmployeesConfig) Merge(overlay *EmployeesConfig) {
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}
