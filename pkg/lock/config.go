package lock

import (
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	StoreRedis  = "redis"
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Config selects the lock coordination store.
type Config struct {
	Store         string `toml:"store"`
	Prefix        string `toml:"prefix"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Dir           string `toml:"dir"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Store         string
	Prefix        string
	RedisAddr     string
	RedisPassword string
	RedisDB       string
	Dir           string
}

// NewStore builds the Store selected by cfg.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Store {
	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client), nil
	case StoreFile:
		return NewFileStore(cfg.Dir)
	case StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisPassword != "" {
		c.RedisPassword = overlay.RedisPassword
	}
	if overlay.RedisDB != 0 {
		c.RedisDB = overlay.RedisDB
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StoreFile
	}
	if c.Prefix == "" {
		c.Prefix = "dossier:lock:"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.Dir == "" {
		c.Dir = os.TempDir()
	}
}

func (c *Config) loadEnv(env *Env) {
	for _, l := range []struct {
		key string
		dst *string
	}{
		{env.Store, &c.Store},
		{env.Prefix, &c.Prefix},
		{env.RedisAddr, &c.RedisAddr},
		{env.RedisPassword, &c.RedisPassword},
		{env.Dir, &c.Dir},
	} {
		if l.key == "" {
			continue
		}
		if v := os.Getenv(l.key); v != "" {
			*l.dst = v
		}
	}

	if env.RedisDB != "" {
		if v := os.Getenv(env.RedisDB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RedisDB = n
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreRedis, StoreFile, StoreMemory:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
}
