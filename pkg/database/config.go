package database

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
	// ConnRetries is how many extra startup pings run, with backoff, before
	// the database is reported unready.
	ConnRetries int `toml:"conn_retries"`
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// URL is the postgres:// connection string. The pgx driver and the
// migrate tool both accept it.
func (c *Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Finalize applies defaults, then overrides from envPrefix + _HOST, _PORT,
// _NAME, _USER, _PASSWORD, _SSL_MODE, _MAX_OPEN_CONNS, _MAX_IDLE_CONNS,
// _CONN_MAX_LIFETIME, _CONN_TIMEOUT and _CONN_RETRIES, then validates.
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

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	for dst, v := range c.strings(overlay) {
		if v != "" {
			*dst = v
		}
	}
	for dst, v := range c.ints(overlay) {
		if v != 0 {
			*dst = v
		}
	}
}

func (c *Config) strings(from *Config) map[*string]string {
	return map[*string]string{
		&c.Host:            from.Host,
		&c.Name:            from.Name,
		&c.User:            from.User,
		&c.Password:        from.Password,
		&c.SSLMode:         from.SSLMode,
		&c.ConnMaxLifetime: from.ConnMaxLifetime,
		&c.ConnTimeout:     from.ConnTimeout,
	}
}

func (c *Config) ints(from *Config) map[*int]int {
	return map[*int]int{
		&c.Port:         from.Port,
		&c.MaxOpenConns: from.MaxOpenConns,
		&c.MaxIdleConns: from.MaxIdleConns,
		&c.ConnRetries:  from.ConnRetries,
	}
}

var defaults = Config{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: "15m",
	ConnTimeout:     "5s",
	ConnRetries:     4,
}

func (c *Config) loadDefaults() {
	for dst, v := range c.strings(&defaults) {
		if *dst == "" {
			*dst = v
		}
	}
	for dst, v := range c.ints(&defaults) {
		if *dst == 0 {
			*dst = v
		}
	}
}

func (c *Config) loadEnv(prefix string) error {
	strs := map[string]*string{
		"_HOST":              &c.Host,
		"_NAME":              &c.Name,
		"_USER":              &c.User,
		"_PASSWORD":          &c.Password,
		"_SSL_MODE":          &c.SSLMode,
		"_CONN_MAX_LIFETIME": &c.ConnMaxLifetime,
		"_CONN_TIMEOUT":      &c.ConnTimeout,
	}
	for suffix, dst := range strs {
		if v := os.Getenv(prefix + suffix); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"_PORT":           &c.Port,
		"_MAX_OPEN_CONNS": &c.MaxOpenConns,
		"_MAX_IDLE_CONNS": &c.MaxIdleConns,
		"_CONN_RETRIES":   &c.ConnRetries,
	}
	for suffix, dst := range ints {
		v := os.Getenv(prefix + suffix)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix, suffix, err)
		}
		*dst = n
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.User == "":
		return fmt.Errorf("user required")
	case c.ConnRetries < 0:
		return fmt.Errorf("conn_retries must not be negative: %d", c.ConnRetries)
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns %d exceeds max_open_conns %d", c.MaxIdleConns, c.MaxOpenConns)
	}
	for key, v := range map[string]string{
		"conn_max_lifetime": c.ConnMaxLifetime,
		"conn_timeout":      c.ConnTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}
