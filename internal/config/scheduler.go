package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvSchedulerEnabled         = "DOSSIER_SCHEDULER_ENABLED"
	EnvSchedulerArchiveInterval = "DOSSIER_SCHEDULER_ARCHIVE_INTERVAL"
	EnvSchedulerManualInterval  = "DOSSIER_SCHEDULER_MANUAL_INTERVAL"
	EnvSchedulerInitialDelay    = "DOSSIER_SCHEDULER_INITIAL_DELAY"
)

// SchedulerConfig controls the periodic scans run by the server.
// An empty ManualInterval disables the manual scan.
type SchedulerConfig struct {
	Enabled         bool   `toml:"enabled"`
	ArchiveInterval string `toml:"archive_interval"`
	ManualInterval  string `toml:"manual_interval"`
	InitialDelay    string `toml:"initial_delay"`
}

// ArchiveIntervalDuration returns ArchiveInterval as a time.Duration.
func (c *SchedulerConfig) ArchiveIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.ArchiveInterval)
	return d
}

// ManualIntervalDuration returns ManualInterval as a time.Duration, zero when unset.
func (c *SchedulerConfig) ManualIntervalDuration() time.Duration {
	if c.ManualInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.ManualInterval)
	return d
}

// InitialDelayDuration returns InitialDelay as a time.Duration.
func (c *SchedulerConfig) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.InitialDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SchedulerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *SchedulerConfig) Merge(overlay *SchedulerConfig) {
	c.Enabled = overlay.Enabled

	if overlay.ArchiveInterval != "" {
		c.ArchiveInterval = overlay.ArchiveInterval
	}
	if overlay.ManualInterval != "" {
		c.ManualInterval = overlay.ManualInterval
	}
	if overlay.InitialDelay != "" {
		c.InitialDelay = overlay.InitialDelay
	}
}

func (c *SchedulerConfig) loadDefaults() {
	if c.ArchiveInterval == "" {
		c.ArchiveInterval = "1h"
	}
	if c.InitialDelay == "" {
		c.InitialDelay = "30s"
	}
}

func (c *SchedulerConfig) loadEnv() {
	if v := os.Getenv(EnvSchedulerEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvSchedulerArchiveInterval); v != "" {
		c.ArchiveInterval = v
	}
	if v := os.Getenv(EnvSchedulerManualInterval); v != "" {
		c.ManualInterval = v
	}
	if v := os.Getenv(EnvSchedulerInitialDelay); v != "" {
		c.InitialDelay = v
	}
}

func (c *SchedulerConfig) validate() error {
	if d, err := time.ParseDuration(c.ArchiveInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid archive_interval: %q", c.ArchiveInterval)
	}
	if c.ManualInterval != "" {
		if d, err := time.ParseDuration(c.ManualInterval); err != nil || d <= 0 {
			return fmt.Errorf("invalid manual_interval: %q", c.ManualInterval)
		}
	}
	if d, err := time.ParseDuration(c.InitialDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid initial_delay: %q", c.InitialDelay)
	}
	return nil
}
