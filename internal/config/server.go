package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "DOSSIER_SERVER_HOST"
	EnvServerPort              = "DOSSIER_SERVER_PORT"
	EnvServerReadTimeout       = "DOSSIER_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "DOSSIER_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "DOSSIER_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "DOSSIER_SERVER_IDLE_TIMEOUT"
	EnvServerMaxHeaderKB       = "DOSSIER_SERVER_MAX_HEADER_KB"
)

// ServerConfig holds HTTP listener parameters for the dossier API.
//
// WriteTimeout bounds a whole response, including streamed document
// content; "0s" disables it for deployments serving very large PDFs.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	MaxHeaderKB       int    `toml:"max_header_kb"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts returns the parsed read, read-header, write and idle timeouts.
// Values are validated by Finalize.
func (c *ServerConfig) Timeouts() (read, header, write, idle time.Duration) {
	read, _ = time.ParseDuration(c.ReadTimeout)
	header, _ = time.ParseDuration(c.ReadHeaderTimeout)
	write, _ = time.ParseDuration(c.WriteTimeout)
	idle, _ = time.ParseDuration(c.IdleTimeout)
	return
}

// MaxHeaderBytes converts MaxHeaderKB for http.Server.
func (c *ServerConfig) MaxHeaderBytes() int {
	return c.MaxHeaderKB << 10
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range []struct{ dst, src *string }{
		{&c.ReadTimeout, &overlay.ReadTimeout},
		{&c.ReadHeaderTimeout, &overlay.ReadHeaderTimeout},
		{&c.WriteTimeout, &overlay.WriteTimeout},
		{&c.IdleTimeout, &overlay.IdleTimeout},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
	if overlay.MaxHeaderKB != 0 {
		c.MaxHeaderKB = overlay.MaxHeaderKB
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.ReadHeaderTimeout == "" {
		c.ReadHeaderTimeout = "10s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "15m"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "2m"
	}
	if c.MaxHeaderKB == 0 {
		c.MaxHeaderKB = 64
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvServerReadTimeout); v != "" {
		c.ReadTimeout = v
	}
	if v := os.Getenv(EnvServerReadHeaderTimeout); v != "" {
		c.ReadHeaderTimeout = v
	}
	if v := os.Getenv(EnvServerWriteTimeout); v != "" {
		c.WriteTimeout = v
	}
	if v := os.Getenv(EnvServerIdleTimeout); v != "" {
		c.IdleTimeout = v
	}
	if v := os.Getenv(EnvServerMaxHeaderKB); v != "" {
		if kb, err := strconv.Atoi(v); err == nil {
			c.MaxHeaderKB = kb
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for name, v := range map[string]string{
		"read_timeout":        c.ReadTimeout,
		"read_header_timeout": c.ReadHeaderTimeout,
		"write_timeout":       c.WriteTimeout,
		"idle_timeout":        c.IdleTimeout,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	if header, _ := time.ParseDuration(c.ReadHeaderTimeout); header == 0 {
		return fmt.Errorf("read_header_timeout must be positive")
	}
	if c.MaxHeaderKB < 1 || c.MaxHeaderKB > 1024 {
		return fmt.Errorf("max_header_kb must be between 1 and 1024: %d", c.MaxHeaderKB)
	}
	return nil
}
