package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/pkg/barcode"
	"github.com/JaimeStill/dossier/pkg/database"
	"github.com/JaimeStill/dossier/pkg/lock"
	"github.com/JaimeStill/dossier/pkg/storage"
	"github.com/JaimeStill/dossier/pkg/vault"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDossierEnv             = "DOSSIER_ENV"
	EnvDossierShutdownTimeout = "DOSSIER_SHUTDOWN_TIMEOUT"
	EnvDossierVersion         = "DOSSIER_VERSION"
)

// DatabaseEnvPrefix prefixes the DOSSIER_DB_* overrides shared with cmd/migrate.
const DatabaseEnvPrefix = "DOSSIER_DB"

var storageEnv = &storage.Env{
	Provider:         "DOSSIER_STORAGE_PROVIDER",
	Container:        "DOSSIER_STORAGE_CONTAINER",
	ConnectionString: "DOSSIER_STORAGE_CONNECTION_STRING",
	Endpoint:         "DOSSIER_STORAGE_ENDPOINT",
	AccessKey:        "DOSSIER_STORAGE_ACCESS_KEY",
	SecretKey:        "DOSSIER_STORAGE_SECRET_KEY",
	UseSSL:           "DOSSIER_STORAGE_USE_SSL",
	Root:             "DOSSIER_STORAGE_ROOT",
}

var lockEnv = &lock.Env{
	Store:         "DOSSIER_LOCK_STORE",
	Prefix:        "DOSSIER_LOCK_PREFIX",
	RedisAddr:     "DOSSIER_LOCK_REDIS_ADDR",
	RedisPassword: "DOSSIER_LOCK_REDIS_PASSWORD",
	RedisDB:       "DOSSIER_LOCK_REDIS_DB",
	Dir:           "DOSSIER_LOCK_DIR",
}

var vaultEnv = &vault.Env{
	Key:              "DOSSIER_VAULT_KEY",
	PreviousKeys:     "DOSSIER_VAULT_PREVIOUS_KEYS",
	MaxPlaintextSize: "DOSSIER_VAULT_MAX_PLAINTEXT_SIZE",
}

var barcodeEnv = &barcode.Env{
	PageTimeout: "DOSSIER_BARCODE_PAGE_TIMEOUT",
	ProbePages:  "DOSSIER_BARCODE_PROBE_PAGES",
	TempDir:     "DOSSIER_BARCODE_TEMP_DIR",
	MaxRenders:  "DOSSIER_BARCODE_MAX_RENDERS",
}

var scannerEnv = &scanner.Env{
	ArchiveRoot:   "DOSSIER_SCAN_ARCHIVE_ROOT",
	ManualRoot:    "DOSSIER_SCAN_MANUAL_ROOT",
	ManualScope:   "DOSSIER_SCAN_MANUAL_SCOPE",
	Extensions:    "DOSSIER_SCAN_EXTENSIONS",
	Workers:       "DOSSIER_SCAN_WORKERS",
	SplitBundles:  "DOSSIER_SCAN_SPLIT_BUNDLES",
	LockTTL:       "DOSSIER_SCAN_LOCK_TTL",
	FlushInterval: "DOSSIER_SCAN_FLUSH_INTERVAL",
	RetryAttempts: "DOSSIER_SCAN_RETRY_ATTEMPTS",
	RetryBackoff:  "DOSSIER_SCAN_RETRY_BACKOFF",
}

var filingEnv = &filing.Env{
	FallbackYears: "DOSSIER_FILING_FALLBACK_YEARS",
	RetryAttempts: "DOSSIER_FILING_RETRY_ATTEMPTS",
}

// Config is the root configuration for the Dossier service and CLI.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Lock            lock.Config     `toml:"lock"`
	Vault           vault.Config    `toml:"vault"`
	Barcode         barcode.Config  `toml:"barcode"`
	Scanner         scanner.Config  `toml:"scanner"`
	Filing          filing.Config   `toml:"filing"`
	Employees       EmployeesConfig `toml:"employees"`
	Scheduler       SchedulerConfig `toml:"scheduler"`
	API             APIConfig       `toml:"api"`
	Logging         LoggingConfig   `toml:"logging"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DOSSIER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDossierEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base config path. The overlay is
// resolved next to the base file.
func LoadFile(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(base); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Lock.Merge(&overlay.Lock)
	c.Vault.Merge(&overlay.Vault)
	c.Barcode.Merge(&overlay.Barcode)
	c.Scanner.Merge(&overlay.Scanner)
	c.Filing.Merge(&overlay.Filing)
	c.Employees.Merge(&overlay.Employees)
	c.Scheduler.Merge(&overlay.Scheduler)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(DatabaseEnvPrefix); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Lock.Finalize(lockEnv); err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if err := c.Vault.Finalize(vaultEnv); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Barcode.Finalize(barcodeEnv); err != nil {
		return fmt.Errorf("barcode: %w", err)
	}
	if err := c.Scanner.Finalize(scannerEnv); err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	if err := c.Filing.Finalize(filingEnv); err != nil {
		return fmt.Errorf("filing: %w", err)
	}
	if err := c.Employees.Finalize(); err != nil {
		return fmt.Errorf("employees: %w", err)
	}
	if err := c.Scheduler.Finalize(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDossierShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDossierVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	if env := os.Getenv(EnvDossierEnv); env != "" {
		path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
