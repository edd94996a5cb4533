package storage

import (
	"fmt"
	"os"
	"strconv"
)

const (
	ProviderAzure = "azure"
	ProviderMinio = "minio"
	ProviderLocal = "local"
)

// Config selects and parameterizes a blob storage provider.
// Container names the Azure container or the S3 bucket.
type Config struct {
	Provider         string `toml:"provider"`
	Container        string `toml:"container"`
	ConnectionString string `toml:"connection_string"`
	Endpoint         string `toml:"endpoint"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	UseSSL           bool   `toml:"use_ssl"`
	Root             string `toml:"root"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Container        string
	ConnectionString string
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           string
	Root             string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Container != "" {
		c.Container = overlay.Container
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.UseSSL {
		c.UseSSL = true
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Container == "" {
		c.Container = "documents"
	}
	if c.Root == "" {
		c.Root = "data/blobs"
	}
}

func (c *Config) loadEnv(env *Env) {
	lookups := []struct {
		key string
		dst *string
	}{
		{env.Provider, &c.Provider},
		{env.Container, &c.Container},
		{env.ConnectionString, &c.ConnectionString},
		{env.Endpoint, &c.Endpoint},
		{env.AccessKey, &c.AccessKey},
		{env.SecretKey, &c.SecretKey},
		{env.Root, &c.Root},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		if v := os.Getenv(l.key); v != "" {
			*l.dst = v
		}
	}

	if env.UseSSL != "" {
		if v := os.Getenv(env.UseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UseSSL = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" && c.Endpoint == "" {
			return fmt.Errorf("azure requires connection_string or endpoint")
		}
	case ProviderMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("minio requires endpoint")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("minio requires access_key and secret_key")
		}
	case ProviderLocal:
		if c.Root == "" {
			return fmt.Errorf("local requires root")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.Container == "" {
		return fmt.Errorf("container required")
	}
	return nil
}
