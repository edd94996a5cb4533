package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/dossier/internal/config"
)

const baseConfig = `
shutdown_timeout = "20s"

[server]
port = 9090

[database]
name = "dossier"
user = "dossier"

[vault]
key = "base-key"

[scanner]
archive_root = "/srv/archive"
workers = 4

[scheduler]
enabled = true
archive_interval = "2h"

[api.pagination]
default_page_size = 25
max_page_size = 200
`

const overlayConfig = `
[scanner]
workers = 2

[logging]
level = "debug"
format = "text"
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFileBase(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", baseConfig)

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"shutdown", cfg.ShutdownTimeoutDuration(), 20 * time.Second},
		{"port", cfg.Server.Port, 9090},
		{"db host default", cfg.Database.Host, "localhost"},
		{"archive root", cfg.Scanner.ArchiveRoot, "/srv/archive"},
		{"workers", cfg.Scanner.Workers, 4},
		{"scheduler enabled", cfg.Scheduler.Enabled, true},
		{"archive interval", cfg.Scheduler.ArchiveIntervalDuration(), 2 * time.Hour},
		{"manual interval", cfg.Scheduler.ManualIntervalDuration(), time.Duration(0)},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"base path", cfg.API.BasePath, "/api"},
		{"lock prefix", cfg.Lock.Prefix, "dossier:lock:"},
		{"log format", cfg.Logging.Format, "json"},
		{"cache size", cfg.Employees.CacheSize, 4096},
		{"version", cfg.Version, "0.1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.test.toml", overlayConfig)
	t.Setenv(config.EnvDossierEnv, "test")

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Scanner.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Scanner.Workers)
	}
	if cfg.Scanner.ArchiveRoot != "/srv/archive" {
		t.Errorf("archive_root = %q, want base value", cfg.Scanner.ArchiveRoot)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Env() != "test" {
		t.Errorf("Env() = %q, want test", cfg.Env())
	}
}

func TestLoadFileOverlayDisablesSplitBundles(t *testing.T) {
	dir := t.TempDir()
	content := strings.Replace(baseConfig, "workers = 4", "workers = 4\nsplit_bundles = true", 1)
	base := writeConfig(t, dir, "config.toml", content)
	writeConfig(t, dir, "config.test.toml", "[scanner]\nsplit_bundles = false\n")
	t.Setenv(config.EnvDossierEnv, "test")

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Scanner.SplitEnabled() {
		t.Error("split_bundles = true, want overlay to disable it")
	}
	if cfg.Scanner.Workers != 4 {
		t.Errorf("workers = %d, want base value", cfg.Scanner.Workers)
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "config.toml", baseConfig)

	t.Setenv("DOSSIER_DB_HOST", "db.internal")
	t.Setenv("DOSSIER_VAULT_KEY", "env-key")
	t.Setenv("DOSSIER_SCAN_ARCHIVE_ROOT", "/mnt/scans")
	t.Setenv("DOSSIER_LOCK_STORE", "memory")
	t.Setenv(config.EnvSchedulerManualInterval, "15m")
	t.Setenv(config.EnvLogLevel, "warn")

	cfg, err := config.LoadFile(base)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("db host = %q", cfg.Database.Host)
	}
	if cfg.Vault.Key != "env-key" {
		t.Errorf("vault key = %q", cfg.Vault.Key)
	}
	if cfg.Scanner.ArchiveRoot != "/mnt/scans" {
		t.Errorf("archive_root = %q", cfg.Scanner.ArchiveRoot)
	}
	if cfg.Lock.Store != "memory" {
		t.Errorf("lock store = %q", cfg.Lock.Store)
	}
	if cfg.Scheduler.ManualIntervalDuration() != 15*time.Minute {
		t.Errorf("manual interval = %v", cfg.Scheduler.ManualIntervalDuration())
	}
	if cfg.Logging.SlogLevel().String() != "WARN" {
		t.Errorf("level = %v, want WARN", cfg.Logging.SlogLevel())
	}
}

func TestLoadFileFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"missing key",
			strings.Replace(baseConfig, `key = "base-key"`, "", 1),
			"vault",
		},
		{
			"missing archive root",
			strings.Replace(baseConfig, `archive_root = "/srv/archive"`, "", 1),
			"scanner",
		},
		{
			"bad interval",
			strings.Replace(baseConfig, `archive_interval = "2h"`, `archive_interval = "often"`, 1),
			"scheduler",
		},
		{
			"nested base path",
			strings.Replace(baseConfig, "[api.pagination]", "[api]\nbase_path = \"/api/v1\"\n\n[api.pagination]", 1),
			"base_path",
		},
		{
			"cors credentials with wildcard",
			baseConfig + "\n[api.cors]\norigins = [\"*\"]\nallow_credentials = true\n",
			"cors",
		},
		{
			"bad log format",
			baseConfig + "\n[logging]\nformat = \"xml\"\n",
			"logging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			base := writeConfig(t, dir, "config.toml", tt.content)

			_, err := config.LoadFile(base)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileMissingBaseUsesEnv(t *testing.T) {
	t.Setenv("DOSSIER_DB_NAME", "dossier")
	t.Setenv("DOSSIER_DB_USER", "dossier")
	t.Setenv("DOSSIER_VAULT_KEY", "k")
	t.Setenv("DOSSIER_SCAN_ARCHIVE_ROOT", "/srv/archive")

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
}
