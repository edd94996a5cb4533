package openapi

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the document metadata and server list published in the
// generated spec. An empty Servers list leaves the choice to the caller.
type Config struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Servers     []string `toml:"servers"`
}

// ConfigEnv names the environment variables that override Config.
// Servers is read as a comma-separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Servers     string
}

// Finalize applies defaults and environment overrides, then checks that
// every server is an absolute URL or a path beginning with "/".
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Dossier API"
	}
	if c.Description == "" {
		c.Description = "Personnel document ingestion, classification and filing."
	}
	if env != nil {
		c.loadEnv(env)
	}

	for _, s := range c.Servers {
		if strings.HasPrefix(s, "/") {
			continue
		}
		if u, err := url.Parse(s); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid server %q: want absolute URL or /path", s)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Servers != nil {
		c.Servers = overlay.Servers
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	get := func(key string) string {
		if key == "" {
			return ""
		}
		return os.Getenv(key)
	}

	if v := get(env.Title); v != "" {
		c.Title = v
	}
	if v := get(env.Description); v != "" {
		c.Description = v
	}
	if v := get(env.Servers); v != "" {
		c.Servers = c.Servers[:0:0]
		for s := range strings.SplitSeq(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Servers = append(c.Servers, s)
			}
		}
	}
}
