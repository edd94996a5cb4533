package middleware

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
)

// AnyOrigin in Origins allows every origin. It cannot be combined with
// credentials.
const AnyOrigin = "*"

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// Finalize applies defaults, then overrides read from envPrefix + _ENABLED,
// _ORIGINS, _ALLOWED_METHODS, _ALLOWED_HEADERS, _EXPOSED_HEADERS,
// _ALLOW_CREDENTIALS and _MAX_AGE. An empty prefix skips the environment.
func (c *CORSConfig) Finalize(envPrefix string) error {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}

	if envPrefix != "" {
		if err := c.loadEnv(envPrefix); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Booleans always apply; lists apply
// when set and MaxAge when positive.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	for dst, src := range map[*[]string][]string{
		&c.Origins:        overlay.Origins,
		&c.AllowedMethods: overlay.AllowedMethods,
		&c.AllowedHeaders: overlay.AllowedHeaders,
		&c.ExposedHeaders: overlay.ExposedHeaders,
	} {
		if src != nil {
			*dst = src
		}
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadEnv(prefix string) error {
	lists := map[string]*[]string{
		"_ORIGINS":         &c.Origins,
		"_ALLOWED_METHODS": &c.AllowedMethods,
		"_ALLOWED_HEADERS": &c.AllowedHeaders,
		"_EXPOSED_HEADERS": &c.ExposedHeaders,
	}
	for suffix, dst := range lists {
		if v := os.Getenv(prefix + suffix); v != "" {
			*dst = splitList(v)
		}
	}

	flags := map[string]*bool{
		"_ENABLED":           &c.Enabled,
		"_ALLOW_CREDENTIALS": &c.AllowCredentials,
	}
	for suffix, dst := range flags {
		if v := os.Getenv(prefix + suffix); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.New(prefix + suffix + ": " + err.Error())
			}
			*dst = b
		}
	}

	if v := os.Getenv(prefix + "_MAX_AGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(prefix + "_MAX_AGE: " + err.Error())
		}
		c.MaxAge = n
	}
	return nil
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && slices.Contains(c.Origins, AnyOrigin) {
		return errors.New("cors: allow_credentials cannot be combined with origin \"*\"")
	}
	return nil
}

// splitList parses a comma-separated value, dropping blanks and repeats.
func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" && !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}
